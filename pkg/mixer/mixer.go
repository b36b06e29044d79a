// Package mixer sums audio streams into a single output.
package mixer

import (
	"sync"
)

// Source is a pull-based stream of mono float32 samples.
type Source interface {
	Read(p []float32) (int, error)
}

// Mixer sums an arbitrary number of mono float32 streams into a single
// stream, pulled by an external sink. Members can be added and removed
// while the sink is pulling: the member set is snapshotted at the start
// of each pull.
//
// Summation is plain: no gain compensation or clipping is applied, so
// the output may exceed the [-1, 1] range.
type Mixer struct {
	mutex   sync.Mutex
	sources []Source
	scratch []float32
}

// New allocates a Mixer.
func New() *Mixer {
	return &Mixer{}
}

// Add adds a member stream.
func (m *Mixer) Add(source Source) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sources = append(m.sources, source)
}

// Remove removes a member stream.
func (m *Mixer) Remove(source Source) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, s := range m.sources {
		if s == source {
			m.sources = append(m.sources[:i], m.sources[i+1:]...)
			return
		}
	}
}

// Len returns the number of member streams.
func (m *Mixer) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.sources)
}

// Read fills p with the sample-wise sum of every member stream and
// always returns len(p): members that underrun contribute silence.
func (m *Mixer) Read(p []float32) (int, error) {
	m.mutex.Lock()
	sources := make([]Source, len(m.sources))
	copy(sources, m.sources)
	m.mutex.Unlock()

	for i := range p {
		p[i] = 0
	}

	if cap(m.scratch) < len(p) {
		m.scratch = make([]float32, len(p))
	}
	buf := m.scratch[:len(p)]

	for _, source := range sources {
		n, err := source.Read(buf)
		if err != nil {
			continue
		}

		for i := 0; i < n; i++ {
			p[i] += buf[i]
		}
	}

	return len(p), nil
}
