package connection

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client represents a single WebSocket connection to the feed.
type Client interface {
	// Connect establishes the WebSocket connection.
	Connect(ctx context.Context) error

	// Close gracefully closes the connection. Safe to call more than once.
	Close() error

	// Send writes one text frame.
	Send(data []byte) error

	// Receive returns the next frame. wait selects the mode: NoWait returns
	// ErrNoMessage immediately when nothing is queued, WaitForever blocks until
	// a frame arrives or ctx is done, a positive duration bounds the wait.
	Receive(ctx context.Context, wait time.Duration) (Message, error)

	// IsConnected returns current connection state.
	IsConnected() bool

	// ID identifies the connection in logs.
	ID() string

	// Stats reports the receive queue.
	Stats() InboxStats
}

// client implements the Client interface.
type client struct {
	cfg    ClientConfig
	logger *slog.Logger
	id     string

	conn  *websocket.Conn
	inbox *inbox
	done  chan struct{}

	// Write serialization
	writeMu sync.Mutex

	// State
	mu        sync.RWMutex
	connected bool
	closed    bool
}

// NewClient creates a new WebSocket client.
func NewClient(cfg ClientConfig, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultClientConfig()
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaults.BufferSize
	}

	id := uuid.NewString()
	return &client{
		cfg:    cfg,
		logger: logger.With("conn_id", id),
		id:     id,
		inbox:  newInbox(cfg.BufferSize),
		done:   make(chan struct{}),
	}
}

func (c *client) ID() string {
	return c.id
}

// Connect establishes the WebSocket connection.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	header := http.Header{}
	header.Set("Accept", "application/json")

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrAlreadyClosed
	}
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readLoop(conn)

	c.logger.Debug("websocket connected", "url", c.cfg.URL)

	return nil
}

// Close gracefully closes the connection.
func (c *client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	close(c.done)
	c.inbox.close(ErrNotConnected)

	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()

	c.logger.Debug("websocket closed")
	return conn.Close()
}

// Send writes raw bytes to the connection.
func (c *client) Send(data []byte) error {
	c.mu.RLock()
	if !c.connected {
		c.mu.RUnlock()
		return ErrNotConnected
	}
	conn := c.conn
	c.mu.RUnlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Receive returns the next queued frame.
func (c *client) Receive(ctx context.Context, wait time.Duration) (Message, error) {
	c.mu.RLock()
	started := c.conn != nil || c.closed
	c.mu.RUnlock()
	if !started {
		return Message{}, ErrNotConnected
	}
	return c.inbox.wait(ctx, wait)
}

// IsConnected returns the current connection state.
func (c *client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Stats returns inbox statistics.
func (c *client) Stats() InboxStats {
	return c.inbox.stats()
}

// readLoop reads frames from the WebSocket into the inbox.
func (c *client) readLoop(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn("websocket read failed", "error", err)
				c.inbox.close(fmt.Errorf("%w: %v", ErrNotConnected, err))
			}
			return
		}

		if !c.inbox.push(Message{Data: data, ReceivedAt: receivedAt}) {
			return
		}
	}
}
