package pcm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSwapEndian24(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	out := SwapEndian24(buf)
	require.Equal(t, []byte{0x03, 0x02, 0x01, 0x06, 0x05, 0x04}, out)

	// self-inverse
	out = SwapEndian24(out)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, out)
}

func TestSwapEndian24Remainder(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	out := SwapEndian24(buf)
	require.Equal(t, []byte{0x03, 0x02, 0x01}, out)

	out = SwapEndian24([]byte{0x01})
	require.Equal(t, []byte{}, out)
}

func TestNewDecoderUnsupported(t *testing.T) {
	for _, depth := range []int{8, 16, 32} {
		_, err := NewDecoder(depth, bytes.NewReader(nil))
		require.Error(t, err)
	}
}

func TestDecoderRead(t *testing.T) {
	for _, ca := range []struct {
		name    string
		enc     []byte
		samples []float32
	}{
		{
			"reference values",
			[]byte{
				0x00, 0x00, 0x00, // 0
				0x00, 0x00, 0x40, // 2^22 / 2^23 = 0.5
				0xff, 0xff, 0x7f, // largest positive
				0xff, 0xff, 0xff, // -1 / 2^23
				0x00, 0x00, 0x80, // most negative
			},
			[]float32{
				0,
				0.5,
				float32(8388607) / 8388608,
				float32(-1) / 8388608,
				-1,
			},
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			d, err := NewDecoder(24, bytes.NewReader(ca.enc))
			require.NoError(t, err)

			out := make([]float32, len(ca.samples))
			n, err := d.Read(out)
			require.NoError(t, err)
			require.Equal(t, len(ca.samples), n)
			require.Equal(t, ca.samples, out)
		})
	}
}

func TestDecoderRoundTrip(t *testing.T) {
	in := []float32{0.25, -0.3333, 0.999, -0.999, 0.000001}

	enc := make([]byte, 0, len(in)*3)
	for _, f := range in {
		v := int32(f * (1 << 23))
		enc = append(enc, byte(v), byte(v>>8), byte(v>>16))
	}

	d, err := NewDecoder(24, bytes.NewReader(enc))
	require.NoError(t, err)

	out := make([]float32, len(in))
	n, err := d.Read(out)
	require.NoError(t, err)
	require.Equal(t, len(in), n)

	for i := range in {
		require.InDelta(t, in[i], out[i], 1.0/(1<<23))
	}
}

// chunkReader returns at most chunk bytes per call.
type chunkReader struct {
	buf   []byte
	chunk int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	n := r.chunk
	if n > len(p) {
		n = len(p)
	}
	if n > len(r.buf) {
		n = len(r.buf)
	}
	copy(p, r.buf[:n])
	r.buf = r.buf[n:]
	return n, nil
}

func TestDecoderCarry(t *testing.T) {
	// 2 samples delivered in 4-byte chunks: every pull leaves
	// a partial sample behind.
	d, err := NewDecoder(24, &chunkReader{
		buf:   []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0x20},
		chunk: 4,
	})
	require.NoError(t, err)

	out := make([]float32, 2)

	n, err := d.Read(out)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, float32(0.5), out[0])

	n, err = d.Read(out)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, float32(0.25), out[0])
}

func TestDecoderUnderrun(t *testing.T) {
	d, err := NewDecoder(24, bytes.NewReader(nil))
	require.NoError(t, err)

	out := make([]float32, 4)
	n, err := d.Read(out)
	require.Error(t, err) // io.EOF from the exhausted reader
	require.Equal(t, 0, n)
}
