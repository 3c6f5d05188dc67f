package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrNoMessage     = errors.New("no message available")
	ErrAlreadyClosed = errors.New("already closed")
)

// Receive wait modes. Any positive duration waits at most that long.
const (
	NoWait      time.Duration = 0
	WaitForever time.Duration = -1
)

// Message is one text frame read from the socket.
type Message struct {
	Data       []byte    // Raw frame bytes
	ReceivedAt time.Time // Local timestamp when ReadMessage returned
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL              string        // Feed URL (e.g., wss://tasty-openapi-ws.dxfeed.com/realtime)
	WriteTimeout     time.Duration // Write deadline for sends
	HandshakeTimeout time.Duration // WebSocket opening handshake limit
	BufferSize       int           // Initial inbox capacity; grows as needed
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		WriteTimeout:     5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		BufferSize:       1024,
	}
}
