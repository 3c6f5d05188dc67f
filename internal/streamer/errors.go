package streamer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotConnected  = errors.New("streamer: channel not open")
	ErrNotAuthorized = errors.New("streamer: authentication rejected")
	ErrNoFields      = errors.New("streamer: no fields given and no default for event type")
)

// Handshake steps reported in HandshakeError.
const (
	StepTransport = "transport"
	StepSetup     = "setup"
	StepAuth      = "auth"
	StepChannel   = "channel"
)

// HandshakeError reports an unexpected or unparseable reply while opening the channel.
type HandshakeError struct {
	Step   string
	Reason string
	Err    error
}

func (e *HandshakeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("handshake %s: %s: %v", e.Step, e.Reason, e.Err)
	}
	return fmt.Sprintf("handshake %s: %s", e.Step, e.Reason)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// MissingSchemaError reports data frames for event types that were never
// declared with FEED_SETUP. Frames for other event types are still returned.
type MissingSchemaError struct {
	EventTypes []string
}

func (e *MissingSchemaError) Error() string {
	return fmt.Sprintf("streamer: no negotiated schema for event type(s) %s", strings.Join(e.EventTypes, ", "))
}
