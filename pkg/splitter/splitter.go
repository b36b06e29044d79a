// Package splitter de-interleaves multi-channel audio streams.
package splitter

import (
	"fmt"
)

// Source is a pull-based stream of interleaved float32 samples.
type Source interface {
	Read(p []float32) (int, error)
}

// floatRing is a sample buffer with the same overflow policy as a
// jitter buffer: a chunk that does not fit is dropped in its entirety.
type floatRing struct {
	buf     []float32
	head    int
	count   int
	dropped uint64
}

func (r *floatRing) write(p []float32) {
	if len(p) > len(r.buf)-r.count {
		r.dropped++
		return
	}

	pos := (r.head + r.count) % len(r.buf)
	n := copy(r.buf[pos:], p)
	copy(r.buf, p[n:])
	r.count += len(p)
}

func (r *floatRing) read(p []float32) int {
	n := len(p)
	if n > r.count {
		n = r.count
	}

	n1 := copy(p[:n], r.buf[r.head:])
	if n1 < n {
		copy(p[n1:n], r.buf)
	}

	r.head = (r.head + n) % len(r.buf)
	r.count -= n
	return n
}

// Splitter de-interleaves a multi-channel stream into independent mono
// streams. Pulling any output pulls interleaved frames from the source
// and distributes them to the buffers of every channel.
//
// A Splitter is not safe for concurrent use: all outputs must be
// pulled from the same goroutine.
type Splitter struct {
	source       Source
	channelCount int
	outputs      []*Output
	scratch      []float32
}

// New allocates a Splitter with channelCount mono outputs, each
// buffering up to bufferSamples samples.
func New(source Source, channelCount int, bufferSamples int) (*Splitter, error) {
	if channelCount <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channelCount)
	}
	if bufferSamples <= 0 {
		return nil, fmt.Errorf("invalid buffer size: %d", bufferSamples)
	}

	s := &Splitter{
		source:       source,
		channelCount: channelCount,
	}

	s.outputs = make([]*Output, channelCount)
	for c := range s.outputs {
		s.outputs[c] = &Output{
			s:       s,
			channel: c,
			ring:    floatRing{buf: make([]float32, bufferSamples)},
			stage:   make([]float32, 0, bufferSamples),
		}
	}

	return s, nil
}

// Outputs returns the mono outputs, one per channel.
func (s *Splitter) Outputs() []*Output {
	return s.outputs
}

func (s *Splitter) fill(frameCount int) {
	need := frameCount * s.channelCount
	if cap(s.scratch) < need {
		s.scratch = make([]float32, need)
	}
	buf := s.scratch[:need]

	n, err := s.source.Read(buf)
	if err != nil {
		return
	}

	// a partial frame at the tail cannot be distributed; drop it.
	frames := n / s.channelCount
	if frames == 0 {
		return
	}

	for c, out := range s.outputs {
		if cap(out.stage) < frames {
			out.stage = make([]float32, frames)
		}
		stage := out.stage[:frames]

		for i := 0; i < frames; i++ {
			stage[i] = buf[i*s.channelCount+c]
		}

		out.ring.write(stage)
	}
}

// Output is the mono stream of a single channel.
type Output struct {
	s       *Splitter
	channel int
	ring    floatRing
	stage   []float32
}

// Channel returns the channel number of the output.
func (o *Output) Channel() int {
	return o.channel
}

// Dropped returns the number of chunks this channel has dropped
// because of insufficient buffer space.
func (o *Output) Dropped() uint64 {
	return o.ring.dropped
}

// Read fills p with up to len(p) samples of the channel and returns
// how many were read. It returns less than len(p) when the source
// underruns.
func (o *Output) Read(p []float32) (int, error) {
	if avail := o.ring.count; avail < len(p) {
		o.s.fill(len(p) - avail)
	}
	return o.ring.read(p), nil
}
