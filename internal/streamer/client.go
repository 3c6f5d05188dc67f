package streamer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/time/rate"

	"github.com/rickgao/tastystream/internal/connection"
	"github.com/rickgao/tastystream/internal/schema"
)

// Dialer creates the transport for one connection attempt.
type Dialer func(cfg connection.ClientConfig, logger *slog.Logger) connection.Client

// Pacer blocks until the next subscription message may be sent.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Recorder receives protocol counters. internal/metrics provides the
// Prometheus implementation.
type Recorder interface {
	MessageSent(msgType string)
	FrameDecoded(eventType string, rows int)
	FrameSkipped(reason string)
	StateChanged(state string)
	InboxDepth(queued, capacity int)
}

type nopRecorder struct{}

func (nopRecorder) MessageSent(string)       {}
func (nopRecorder) FrameDecoded(string, int) {}
func (nopRecorder) FrameSkipped(string)      {}
func (nopRecorder) StateChanged(string)      {}
func (nopRecorder) InboxDepth(int, int)      {}

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces the WebSocket transport.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dial = d
	}
}

// WithPacer replaces the token bucket between subscription batches.
func WithPacer(p Pacer) Option {
	return func(c *Client) {
		c.pacer = p
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// Client is a feed protocol client over a single channel.
type Client struct {
	cfg      Config
	token    string
	logger   *slog.Logger
	dial     Dialer
	pacer    Pacer
	recorder Recorder

	mu        sync.Mutex
	conn      connection.Client
	state     State
	channelID int
	schemas   *schema.Registry
	subs      map[string]map[string]struct{}
}

// New creates a Client that authenticates with token.
func New(cfg Config, token string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	c := &Client{
		cfg:      cfg,
		token:    token,
		logger:   logger,
		dial:     connection.NewClient,
		recorder: nopRecorder{},
		schemas:  schema.NewRegistry(),
		subs:     make(map[string]map[string]struct{}),
	}
	if cfg.SubscribeRate > 0 {
		c.pacer = rate.NewLimiter(rate.Limit(cfg.SubscribeRate), cfg.SubscribeBurst)
	} else {
		c.pacer = rate.NewLimiter(rate.Inf, cfg.SubscribeBurst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens the transport and runs SETUP, AUTH and CHANNEL_REQUEST. It is
// a no-op when the channel is already open. Any failure closes the transport
// and leaves the client in the Failed state; there is no retry.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == ChannelOpen {
		return nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.schemas.Reset()
	c.subs = make(map[string]map[string]struct{})

	conn := c.dial(connection.ClientConfig{
		URL:              c.cfg.URL,
		WriteTimeout:     c.cfg.WriteTimeout,
		HandshakeTimeout: c.cfg.HandshakeTimeout,
		BufferSize:       c.cfg.BufferSize,
	}, c.logger)
	if err := conn.Connect(ctx); err != nil {
		conn.Close()
		c.setState(Failed)
		return &HandshakeError{Step: StepTransport, Reason: "dial failed", Err: err}
	}
	c.conn = conn
	c.setState(TransportConnected)

	if err := c.handshake(ctx); err != nil {
		c.conn.Close()
		c.conn = nil
		c.setState(Failed)
		c.logger.Warn("feed handshake failed", "conn_id", conn.ID(), "error", err)
		return err
	}

	c.logger.Info("feed channel open", "conn_id", conn.ID(), "channel", c.channelID)
	return nil
}

func (c *Client) handshake(ctx context.Context) error {
	if err := c.send(setupMessage{
		Type:                   msgSetup,
		Channel:                0,
		KeepaliveTimeout:       c.cfg.KeepaliveTimeout,
		AcceptKeepaliveTimeout: c.cfg.KeepaliveTimeout,
		Version:                c.cfg.Version,
	}); err != nil {
		return &HandshakeError{Step: StepSetup, Reason: "send failed", Err: err}
	}
	var notice bool
	if _, err := c.await(ctx, StepSetup, msgSetup, &notice); err != nil {
		return err
	}
	c.setState(SetupAcknowledged)

	if err := c.send(authMessage{Type: msgAuth, Channel: 0, Token: c.token}); err != nil {
		return &HandshakeError{Step: StepAuth, Reason: "send failed", Err: err}
	}
	state, err := c.await(ctx, StepAuth, msgAuthState, &notice)
	if err != nil {
		return err
	}
	if state.State != authorized {
		return &HandshakeError{Step: StepAuth, Reason: fmt.Sprintf("state %q", state.State), Err: ErrNotAuthorized}
	}
	c.setState(Authorized)

	if err := c.send(channelRequest{
		Type:       msgChannelRequest,
		Channel:    feedChannel,
		Service:    feedService,
		Parameters: channelParameters{Contract: feedContract},
	}); err != nil {
		return &HandshakeError{Step: StepChannel, Reason: "send failed", Err: err}
	}
	opened, err := c.await(ctx, StepChannel, msgChannelOpened, nil)
	if err != nil {
		return err
	}
	c.channelID = opened.Channel
	c.setState(ChannelOpen)
	return nil
}

// await reads the next non-keepalive reply and checks its type. When notice
// is non-nil the first non-AUTHORIZED AUTH_STATE is taken as the server's
// unsolicited pre-auth notice and skipped; any later one is returned.
func (c *Client) await(ctx context.Context, step, want string, notice *bool) (reply, error) {
	for {
		msg, err := c.conn.Receive(ctx, connection.WaitForever)
		if err != nil {
			return reply{}, &HandshakeError{Step: step, Reason: "no reply", Err: err}
		}

		var r reply
		if err := json.Unmarshal(msg.Data, &r); err != nil {
			return reply{}, &HandshakeError{Step: step, Reason: "undecodable reply", Err: err}
		}

		switch {
		case r.Type == msgKeepalive:
			continue
		case r.Type == msgAuthState && r.State != authorized && notice != nil && !*notice:
			*notice = true
			c.logger.Debug("pre-auth notice skipped", "step", step, "state", r.State)
			continue
		case r.Type == msgError:
			reason := fmt.Sprintf("server error %s: %s", r.Error, r.Message)
			if step == StepAuth {
				return reply{}, &HandshakeError{Step: step, Reason: reason, Err: ErrNotAuthorized}
			}
			return reply{}, &HandshakeError{Step: step, Reason: reason}
		case r.Type != want:
			return reply{}, &HandshakeError{Step: step, Reason: fmt.Sprintf("unexpected %q reply, want %q", r.Type, want)}
		}

		c.logger.Debug("handshake reply", "step", step, "type", r.Type)
		return r, nil
	}
}

// Close releases the transport and forgets schemas and subscriptions.
// Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	c.schemas.Reset()
	c.subs = make(map[string]map[string]struct{})
	c.channelID = 0
	if c.state != Disconnected {
		c.setState(Disconnected)
	}
	return err
}

// State returns the current channel state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ChannelID returns the feed channel id, or 0 when no channel is open.
func (c *Client) ChannelID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channelID
}

// Schema returns the registry of negotiated field lists.
func (c *Client) Schema() *schema.Registry {
	return c.schemas
}

// Subscriptions returns the current subscription set, sorted by event type
// and symbol.
func (c *Client) Subscriptions() []Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Subscription, 0, len(c.subs))
	for eventType, set := range c.subs {
		fields, _ := c.schemas.Fields(eventType)
		symbols := make([]string, 0, len(set))
		for s := range set {
			symbols = append(symbols, s)
		}
		sort.Strings(symbols)
		out = append(out, Subscription{EventType: eventType, Fields: fields, Symbols: symbols})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventType < out[j].EventType })
	return out
}

// send encodes and writes one control message. Must be called with mu held.
func (c *Client) send(msg any) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := c.conn.Send(data); err != nil {
		return err
	}
	c.recorder.MessageSent(messageType(msg))
	return nil
}

func messageType(msg any) string {
	switch m := msg.(type) {
	case setupMessage:
		return m.Type
	case authMessage:
		return m.Type
	case channelRequest:
		return m.Type
	case feedSetup:
		return m.Type
	case feedSubscription:
		return m.Type
	case keepalive:
		return m.Type
	default:
		return "unknown"
	}
}

func (c *Client) setState(s State) {
	if c.state == s {
		return
	}
	c.logger.Debug("feed state change", "from", c.state.String(), "to", s.String())
	c.state = s
	c.recorder.StateChanged(s.String())
}
