// Package pcm contains PCM sample format conversions.
package pcm

import (
	"fmt"
	"io"
)

// SwapEndian24 swaps the byte order of the 24-bit samples contained
// in p, in place, converting between the big-endian network convention
// and little-endian host ordering. The conversion is self-inverse.
// Trailing bytes that do not form a complete sample are dropped;
// the returned slice excludes them.
func SwapEndian24(p []byte) []byte {
	p = p[:len(p)-len(p)%3]

	for i := 0; i < len(p); i += 3 {
		p[i], p[i+2] = p[i+2], p[i]
	}

	return p
}

// Decoder converts 24-bit little-endian PCM samples, pulled from an
// upstream byte source, into 32-bit floating point samples in the
// range [-1, 1).
type Decoder struct {
	r io.Reader

	buf      []byte
	carry    [2]byte
	carryLen int
}

// NewDecoder allocates a Decoder that pulls from r.
// It fails when the source is not 24-bit PCM.
func NewDecoder(bitDepth int, r io.Reader) (*Decoder, error) {
	if bitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}

	return &Decoder{r: r}, nil
}

// Read fills p with up to len(p) decoded samples and returns how many
// were decoded. It returns less than len(p) when the source underruns.
// Source bytes that do not yet form a complete sample are carried over
// to the next call.
func (d *Decoder) Read(p []float32) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	need := d.carryLen + len(p)*3
	if cap(d.buf) < need {
		d.buf = make([]byte, need)
	}
	buf := d.buf[:need]
	copy(buf, d.carry[:d.carryLen])

	n, err := d.r.Read(buf[d.carryLen:])
	if err != nil {
		return 0, err
	}
	total := d.carryLen + n

	sampleCount := total / 3
	for i := 0; i < sampleCount; i++ {
		v := int32(buf[i*3]) | int32(buf[i*3+1])<<8 | int32(buf[i*3+2])<<16

		// sign-extend from bit 23
		v = (v << 8) >> 8

		p[i] = float32(v) / (1 << 23)
	}

	d.carryLen = copy(d.carry[:], buf[sampleCount*3:total])

	return sampleCount, nil
}
