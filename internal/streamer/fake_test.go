package streamer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rickgao/tastystream/internal/connection"
)

// fakeConn is a scripted transport. respond is called for every sent
// message and may queue replies.
type fakeConn struct {
	mu         sync.Mutex
	respond    func(msgType string, raw []byte) []connection.Message
	queue      []connection.Message
	sent       [][]byte
	connected  bool
	closed     bool
	closeCount int
	connectErr error
	recvErr    error
}

func (f *fakeConn) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.connected = false
	f.closeCount++
	return nil
}

func (f *fakeConn) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return connection.ErrNotConnected
	}
	f.sent = append(f.sent, append([]byte(nil), data...))

	var head struct {
		Type string `json:"type"`
	}
	json.Unmarshal(data, &head)
	if f.respond != nil {
		f.queue = append(f.queue, f.respond(head.Type, data)...)
	}
	return nil
}

func (f *fakeConn) Receive(ctx context.Context, wait time.Duration) (connection.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recvErr != nil {
		return connection.Message{}, f.recvErr
	}
	if len(f.queue) > 0 {
		msg := f.queue[0]
		f.queue = f.queue[1:]
		return msg, nil
	}
	if wait == connection.NoWait {
		return connection.Message{}, connection.ErrNoMessage
	}
	return connection.Message{}, fmt.Errorf("%w: no scripted reply", connection.ErrNotConnected)
}

func (f *fakeConn) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeConn) ID() string { return "fake" }

func (f *fakeConn) Stats() connection.InboxStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return connection.InboxStats{Count: len(f.queue), Capacity: cap(f.queue)}
}

// push queues incoming frames as if the server had sent them.
func (f *fakeConn) push(frames ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range frames {
		f.queue = append(f.queue, incoming(s))
	}
}

// sentOfType returns the sent messages whose "type" is msgType.
func (f *fakeConn) sentOfType(msgType string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]byte
	for _, raw := range f.sent {
		var head struct {
			Type string `json:"type"`
		}
		json.Unmarshal(raw, &head)
		if head.Type == msgType {
			out = append(out, raw)
		}
	}
	return out
}

func (f *fakeConn) sentTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, raw := range f.sent {
		var head struct {
			Type string `json:"type"`
		}
		json.Unmarshal(raw, &head)
		out = append(out, head.Type)
	}
	return out
}

func incoming(s string) connection.Message {
	return connection.Message{Data: []byte(s), ReceivedAt: time.Now()}
}

// handshakeScript answers the three handshake requests successfully.
func handshakeScript(msgType string, _ []byte) []connection.Message {
	switch msgType {
	case msgSetup:
		return []connection.Message{incoming(`{"type":"SETUP","channel":0,"keepaliveTimeout":60,"acceptKeepaliveTimeout":60,"version":"1.0"}`)}
	case msgAuth:
		return []connection.Message{incoming(`{"type":"AUTH_STATE","channel":0,"state":"AUTHORIZED","userId":"u1"}`)}
	case msgChannelRequest:
		return []connection.Message{incoming(`{"type":"CHANNEL_OPENED","channel":1,"service":"FEED","parameters":{"contract":"AUTO"}}`)}
	}
	return nil
}

// countingPacer records waits without delaying.
type countingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits++
	return ctx.Err()
}

func newTestClient(fake *fakeConn, opts ...Option) (*Client, *int) {
	dials := 0
	base := []Option{
		WithDialer(func(connection.ClientConfig, *slog.Logger) connection.Client {
			dials++
			return fake
		}),
		WithPacer(rate.NewLimiter(rate.Inf, 1)),
	}
	c := New(Config{URL: "ws://fake"}, "test-token", nil, append(base, opts...)...)
	return c, &dials
}

// openClient returns a client whose channel is open on a scripted fake.
func openClient(opts ...Option) (*Client, *fakeConn, error) {
	fake := &fakeConn{respond: handshakeScript}
	c, _ := newTestClient(fake, opts...)
	err := c.Connect(context.Background())
	return c, fake, err
}
