package jitterbuffer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewInvalid(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)

	_, err = NewWithDuration(0, 48000)
	require.Error(t, err)

	_, err = NewWithDuration(100*time.Millisecond, 0)
	require.Error(t, err)
}

func TestNewWithDuration(t *testing.T) {
	// 100ms of 48kHz / 24-bit / stereo
	b, err := NewWithDuration(100*time.Millisecond, 288000)
	require.NoError(t, err)
	require.Equal(t, 28800, b.Capacity())
}

func TestWriteRead(t *testing.T) {
	b, err := New(8)
	require.NoError(t, err)

	require.True(t, b.Write([]byte{1, 2, 3, 4}))
	require.True(t, b.Write([]byte{5, 6}))

	buf := make([]byte, 8)
	n, err := b.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, buf[:n])

	// underrun: short read
	n, err = b.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestWriteOverflow(t *testing.T) {
	b, err := New(8)
	require.NoError(t, err)

	require.True(t, b.Write([]byte{1, 2, 3, 4, 5, 6}))

	// does not fit: dropped in its entirety, prior content untouched
	require.False(t, b.Write([]byte{7, 8, 9}))
	require.Equal(t, uint64(1), b.Overflows())

	// a chunk that fits is fully stored
	require.True(t, b.Write([]byte{7, 8}))

	buf := make([]byte, 8)
	n, err := b.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf[:n])
}

func TestWriteLargerThanCapacity(t *testing.T) {
	b, err := New(4)
	require.NoError(t, err)

	require.False(t, b.Write([]byte{1, 2, 3, 4, 5}))
	require.Equal(t, uint64(1), b.Overflows())

	buf := make([]byte, 4)
	n, _ := b.Read(buf)
	require.Equal(t, 0, n)
}

func TestWraparound(t *testing.T) {
	b, err := New(5)
	require.NoError(t, err)

	require.True(t, b.Write([]byte{1, 2, 3}))

	buf := make([]byte, 3)
	n, _ := b.Read(buf)
	require.Equal(t, 3, n)

	// spans the physical end of the buffer
	require.True(t, b.Write([]byte{4, 5, 6, 7}))

	buf = make([]byte, 4)
	n, _ = b.Read(buf)
	require.Equal(t, 4, n)
	require.Equal(t, []byte{4, 5, 6, 7}, buf)
}

func TestConcurrent(t *testing.T) {
	b, err := New(1024)
	require.NoError(t, err)

	done := make(chan struct{})

	go func() {
		defer close(done)
		src := make([]byte, 16)
		for i := range src {
			src[i] = byte(i)
		}
		for i := 0; i < 1000; i++ {
			b.Write(src)
		}
	}()

	buf := make([]byte, 32)
	total := 0
	for {
		select {
		case <-done:
			for {
				n, _ := b.Read(buf)
				if n == 0 {
					break
				}
				total += n
			}
			require.Equal(t, 0, total%16)
			return

		default:
			n, _ := b.Read(buf)
			total += n
		}
	}
}
