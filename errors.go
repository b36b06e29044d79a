package goaes67

import (
	"fmt"

	"github.com/bluenviron/goaes67/pkg/description"
)

// ErrUnsupportedCodec is returned when a decode pipeline cannot be
// built because the codec of the session is not in the supported set.
type ErrUnsupportedCodec struct {
	Codec description.Codec
}

// Error implements the error interface.
func (e ErrUnsupportedCodec) Error() string {
	return fmt.Sprintf("unsupported codec: %v", e.Codec)
}

// ErrSessionIncomplete is returned when a session description lacks
// the fields needed to receive its stream.
type ErrSessionIncomplete struct {
	Name string
}

// Error implements the error interface.
func (e ErrSessionIncomplete) Error() string {
	return fmt.Sprintf("session '%s' does not describe a receivable stream", e.Name)
}

// ErrSessionAlreadyPlaying is returned when a session is bound twice.
type ErrSessionAlreadyPlaying struct {
	Name string
}

// Error implements the error interface.
func (e ErrSessionAlreadyPlaying) Error() string {
	return fmt.Sprintf("session '%s' is already playing", e.Name)
}
