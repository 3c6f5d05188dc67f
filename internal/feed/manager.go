package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rickgao/tastystream/internal/streamer"
)

// Streamer is the subset of *streamer.Client the manager drives.
type Streamer interface {
	Connect(ctx context.Context) error
	Close() error
	State() streamer.State
	Subscribe(ctx context.Context, eventType string, fields []string, symbols []string) error
	Poll(ctx context.Context) (map[string]*streamer.SubscriptionData, error)
}

// Subscription is replayed after every connect.
type Subscription struct {
	EventType string
	Fields    []string
	Symbols   []string
}

// Config bounds reconnect attempts.
type Config struct {
	InitialInterval time.Duration // First retry delay (default: 1s)
	MaxInterval     time.Duration // Retry delay cap (default: 30s)
	MaxElapsedTime  time.Duration // Give up after this long; 0 retries forever
	AttemptTimeout  time.Duration // Bounds one Connect handshake; 0 means ctx only
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		MaxElapsedTime:  5 * time.Minute,
	}
}

// Stats reports manager activity.
type Stats struct {
	Connects      int64
	Failures      int64
	Subscriptions int
	Connected     bool
}

// Manager owns one Streamer and its subscriptions.
type Manager struct {
	cfg    Config
	client Streamer
	logger *slog.Logger

	mu   sync.Mutex
	subs []Subscription

	connects atomic.Int64
	failures atomic.Int64
}

// NewManager creates a Manager for client.
func NewManager(cfg Config, client Streamer, subs []Subscription, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	d := DefaultConfig()
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = d.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = d.MaxInterval
	}
	if cfg.MaxElapsedTime < 0 {
		cfg.MaxElapsedTime = 0
	}
	return &Manager{
		cfg:    cfg,
		client: client,
		logger: logger,
		subs:   append([]Subscription(nil), subs...),
	}
}

// Start connects and subscribes, retrying with backoff.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connect(ctx)
}

// Stop closes the client.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client.Close()
}

// Add records a subscription and applies it when the channel is open.
func (m *Manager) Add(ctx context.Context, sub Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subs = append(m.subs, sub)
	if m.client.State() != streamer.ChannelOpen {
		return nil
	}
	return m.client.Subscribe(ctx, sub.EventType, sub.Fields, sub.Symbols)
}

// Poll reconnects if needed and polls the client. Any poll failure other than
// a *streamer.MissingSchemaError closes the client so the next call reconnects.
func (m *Manager) Poll(ctx context.Context) (map[string]*streamer.SubscriptionData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client.State() != streamer.ChannelOpen {
		if err := m.connect(ctx); err != nil {
			return nil, err
		}
	}

	data, err := m.client.Poll(ctx)
	if err == nil {
		return data, nil
	}

	var missing *streamer.MissingSchemaError
	if errors.As(err, &missing) {
		return data, err
	}

	m.failures.Add(1)
	m.logger.Warn("feed lost, will reconnect", "error", err)
	if cerr := m.client.Close(); cerr != nil {
		m.logger.Debug("close after poll failure", "error", cerr)
	}
	return data, err
}

// Ready reports nil while the channel is open.
func (m *Manager) Ready() error {
	if s := m.client.State(); s != streamer.ChannelOpen {
		return fmt.Errorf("feed channel %s", s)
	}
	return nil
}

// Stats returns current statistics.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	n := len(m.subs)
	m.mu.Unlock()
	return Stats{
		Connects:      m.connects.Load(),
		Failures:      m.failures.Load(),
		Subscriptions: n,
		Connected:     m.client.State() == streamer.ChannelOpen,
	}
}

func (m *Manager) connectOnce(ctx context.Context) error {
	if m.cfg.AttemptTimeout <= 0 {
		return m.client.Connect(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, m.cfg.AttemptTimeout)
	defer cancel()
	return m.client.Connect(attemptCtx)
}

// connect runs Connect plus every subscription under one backoff policy.
// Authorization failures are not retried. Caller holds m.mu.
func (m *Manager) connect(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.cfg.InitialInterval
	bo.MaxInterval = m.cfg.MaxInterval
	bo.MaxElapsedTime = m.cfg.MaxElapsedTime

	attempt := 0
	operation := func() error {
		attempt++
		if err := m.connectOnce(ctx); err != nil {
			if errors.Is(err, streamer.ErrNotAuthorized) || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		for _, sub := range m.subs {
			if err := m.client.Subscribe(ctx, sub.EventType, sub.Fields, sub.Symbols); err != nil {
				_ = m.client.Close()
				if errors.Is(err, streamer.ErrNoFields) {
					return backoff.Permanent(err)
				}
				return fmt.Errorf("subscribe %s: %w", sub.EventType, err)
			}
		}
		return nil
	}

	notify := func(err error, delay time.Duration) {
		m.failures.Add(1)
		m.logger.Warn("feed connect failed, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(bo, ctx), notify); err != nil {
		return fmt.Errorf("connect feed after %d attempts: %w", attempt, err)
	}

	m.connects.Add(1)
	m.logger.Info("feed connected",
		"attempts", attempt,
		"subscriptions", len(m.subs),
	)
	return nil
}
