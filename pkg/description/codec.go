package description

import (
	"strings"
)

// Codec is the coding of an announced audio stream.
type Codec int

// codecs.
const (
	CodecUnknown Codec = iota
	CodecL8
	CodecL16
	CodecL24
	CodecL32
	CodecOpus
	CodecAC3
)

// String implements fmt.Stringer.
func (c Codec) String() string {
	switch c {
	case CodecL8:
		return "L8"
	case CodecL16:
		return "L16"
	case CodecL24:
		return "L24"
	case CodecL32:
		return "L32"
	case CodecOpus:
		return "opus"
	case CodecAC3:
		return "AC3"
	}
	return "unknown"
}

// BitDepth returns the number of bits per sample of a PCM codec,
// or zero when the codec is not linear PCM.
func (c Codec) BitDepth() int {
	switch c {
	case CodecL8:
		return 8
	case CodecL16:
		return 16
	case CodecL24:
		return 24
	case CodecL32:
		return 32
	}
	return 0
}

func codecFromName(name string) Codec {
	switch strings.ToLower(name) {
	case "l8":
		return CodecL8
	case "l16":
		return CodecL16
	case "l24":
		return CodecL24
	case "l32":
		return CodecL32
	case "opus":
		return CodecOpus
	case "ac3", "ac-3":
		return CodecAC3
	}
	return CodecUnknown
}
