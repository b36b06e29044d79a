// Package jitterbuffer contains a buffer that absorbs network arrival jitter.
package jitterbuffer

import (
	"fmt"
	"sync/atomic"
	"time"
)

// JitterBuffer is a fixed-capacity byte buffer that decouples the arrival
// rate of a stream from its consumption rate. It is safe for use by a
// single writer and a single reader running concurrently.
//
// The writer never blocks and never evicts buffered data: a chunk that
// does not fit in the free space is dropped in its entirety, favoring
// low, bounded latency over completeness.
type JitterBuffer struct {
	size      uint64
	buffer    []byte
	writePos  uint64
	readPos   uint64
	overflows uint64
}

// New allocates a JitterBuffer with the given capacity in bytes.
func New(size int) (*JitterBuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid buffer size: %d", size)
	}

	return &JitterBuffer{
		size:   uint64(size),
		buffer: make([]byte, size),
	}, nil
}

// NewWithDuration allocates a JitterBuffer able to hold the given
// duration of audio at byteRate bytes per second.
func NewWithDuration(d time.Duration, byteRate int) (*JitterBuffer, error) {
	if d <= 0 {
		return nil, fmt.Errorf("invalid buffer duration: %v", d)
	}
	if byteRate <= 0 {
		return nil, fmt.Errorf("invalid byte rate: %d", byteRate)
	}

	return New(int(d * time.Duration(byteRate) / time.Second))
}

// Capacity returns the buffer capacity in bytes.
func (b *JitterBuffer) Capacity() int {
	return int(b.size)
}

// Overflows returns the number of chunks dropped because of
// insufficient free space.
func (b *JitterBuffer) Overflows() uint64 {
	return atomic.LoadUint64(&b.overflows)
}

// Write stores p and returns true when p fits in the free space.
// Otherwise it stores nothing and returns false; previously buffered
// data is left untouched.
func (b *JitterBuffer) Write(p []byte) bool {
	writePos := atomic.LoadUint64(&b.writePos)
	readPos := atomic.LoadUint64(&b.readPos)

	if uint64(len(p)) > (b.size - (writePos - readPos)) {
		atomic.AddUint64(&b.overflows, 1)
		return false
	}

	pos := writePos % b.size
	n := copy(b.buffer[pos:], p)
	copy(b.buffer, p[n:])

	atomic.StoreUint64(&b.writePos, writePos+uint64(len(p)))
	return true
}

// Read copies up to len(p) buffered bytes into p and returns how many
// were copied. It returns less than len(p) when the buffer underruns;
// callers must tolerate short reads. The error is always nil and exists
// to satisfy io.Reader.
func (b *JitterBuffer) Read(p []byte) (int, error) {
	readPos := atomic.LoadUint64(&b.readPos)
	writePos := atomic.LoadUint64(&b.writePos)

	n := writePos - readPos
	if uint64(len(p)) < n {
		n = uint64(len(p))
	}
	if n == 0 {
		return 0, nil
	}

	pos := readPos % b.size
	n1 := copy(p[:n], b.buffer[pos:])
	if uint64(n1) < n {
		copy(p[n1:n], b.buffer)
	}

	atomic.StoreUint64(&b.readPos, readPos+n)
	return int(n), nil
}
