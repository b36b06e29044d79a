package sap

import (
	"sync"
	"time"

	"github.com/bluenviron/goaes67/pkg/description"
)

// Registry is a table of announced sessions, keyed by session name.
// It is safe for concurrent use.
//
// Sessions are never removed: expiry is computed from the time of the
// last announcement, and expired sessions stay available for audit
// through All.
type Registry struct {
	mutex    sync.RWMutex
	sessions map[string]*description.Session
}

// NewRegistry allocates a Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*description.Session),
	}
}

// Upsert atomically inserts sess or refreshes the entry with the same
// name, replacing its content. It returns whether the session was seen
// for the first time.
func (r *Registry) Upsert(sess *description.Session) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, ok := r.sessions[sess.Name]
	if ok {
		*existing = *sess
		return false
	}

	entry := *sess
	r.sessions[sess.Name] = &entry
	return true
}

// Sessions returns a copy of the sessions that are active at the given
// time, i.e. that have been announced recently enough.
func (r *Registry) Sessions(now time.Time) []description.Session {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var ret []description.Session
	for _, sess := range r.sessions {
		if sess.Active(now) {
			ret = append(ret, *sess)
		}
	}
	return ret
}

// All returns a copy of every session ever announced, active or not.
func (r *Registry) All() []description.Session {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ret := make([]description.Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		ret = append(ret, *sess)
	}
	return ret
}
