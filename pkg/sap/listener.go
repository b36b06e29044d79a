// Package sap contains a receiver of SAP session announcements.
package sap

import (
	"bytes"
	"net"
	"time"

	"github.com/bluenviron/goaes67/pkg/description"
	"github.com/bluenviron/goaes67/pkg/multicast"
)

const (
	defaultAddress = "224.2.127.254:9875"

	maxAnnouncementSize = 8192
)

// announcements may carry a short binary SAP header and a content type
// before the descriptor; the descriptor text starts at the first
// occurrence of the version marker that opens every descriptor.
var payloadMarker = []byte("v=")

func extractPayload(buf []byte) []byte {
	i := bytes.Index(buf, payloadMarker)
	if i < 0 {
		return nil
	}
	return buf[i:]
}

// Listener receives session announcements on a multicast group and
// maintains the table of announced sessions.
type Listener struct {
	//
	// parameters (all optional)
	//
	// address and port announcements are received on.
	// It defaults to 224.2.127.254:9875.
	Address string
	// interface announcements are received on.
	// It defaults to all multicast-capable interfaces.
	Interface *net.Interface
	// function used to initialize the UDP socket.
	// It defaults to net.ListenPacket.
	ListenPacket func(network, address string) (net.PacketConn, error)
	//
	// callbacks (all optional)
	//
	// called when a session is announced for the first time.
	// Repeated announcements of a known session refresh the table
	// without invoking it.
	OnSession func(*description.Session)

	registry *Registry
	pc       multicast.Conn
	done     chan struct{}
}

// Initialize validates the configuration, opens the socket and starts
// receiving announcements in the background.
func (l *Listener) Initialize() error {
	if l.Address == "" {
		l.Address = defaultAddress
	}
	if l.ListenPacket == nil {
		l.ListenPacket = net.ListenPacket
	}

	l.registry = NewRegistry()

	pc, err := multicast.NewConn(l.Interface, l.Address, l.ListenPacket)
	if err != nil {
		return err
	}
	l.pc = pc

	l.done = make(chan struct{})
	go l.run()

	return nil
}

// Close closes the listener. Pending receives are unblocked by the
// socket teardown and the background routine is joined.
func (l *Listener) Close() {
	l.pc.Close() //nolint:errcheck
	<-l.done
}

// Sessions returns the sessions that are currently active.
func (l *Listener) Sessions() []description.Session {
	return l.registry.Sessions(time.Now())
}

// AllSessions returns every session ever announced, including the ones
// that are no longer active.
func (l *Listener) AllSessions() []description.Session {
	return l.registry.All()
}

func (l *Listener) run() {
	defer close(l.done)

	buf := make([]byte, maxAnnouncementSize)

	for {
		n, _, err := l.pc.ReadFrom(buf)
		if err != nil {
			return
		}

		sess := parseAnnouncement(buf[:n], time.Now())
		if sess == nil {
			continue
		}

		if l.registry.Upsert(sess) && l.OnSession != nil {
			l.OnSession(sess)
		}
	}
}

// parseAnnouncement turns an announcement datagram into a session.
// Announcements without a descriptor or without a session name are
// discarded; malformed descriptor content is not an error.
func parseAnnouncement(buf []byte, now time.Time) *description.Session {
	payload := extractPayload(buf)
	if payload == nil {
		return nil
	}

	var sess description.Session
	sess.Unmarshal(payload)
	if sess.Name == "" {
		return nil
	}

	sess.LastSeen = now
	return &sess
}
