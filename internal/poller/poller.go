package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/tastystream/internal/streamer"
)

// Source produces one batch of decoded feed data per call.
type Source interface {
	Poll(ctx context.Context) (map[string]*streamer.SubscriptionData, error)
}

// Handler receives decoded feed data.
type Handler interface {
	HandleData(data map[string]*streamer.SubscriptionData) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(map[string]*streamer.SubscriptionData) error

func (f HandlerFunc) HandleData(d map[string]*streamer.SubscriptionData) error {
	return f(d)
}

// Recorder observes poll cycles.
type Recorder interface {
	PollCycle(duration time.Duration, rows int, err error)
}

// Config holds poller configuration.
type Config struct {
	Interval time.Duration // Poll interval (default: 1s)
	Timeout  time.Duration // Per-poll timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: time.Second,
		Timeout:  10 * time.Second,
	}
}

// Stats counts poll activity since Start.
type Stats struct {
	Cycles   int64
	Rows     int64
	Errors   int64
	LastPoll time.Time
}

// Poller periodically drains a Source.
type Poller struct {
	cfg      Config
	source   Source
	handler  Handler
	recorder Recorder
	logger   *slog.Logger

	cycles   atomic.Int64
	rows     atomic.Int64
	errors   atomic.Int64
	lastPoll atomic.Int64 // unix nanos

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller. recorder may be nil.
func New(cfg Config, source Source, handler Handler, recorder Recorder, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	return &Poller{
		cfg:      cfg,
		source:   source,
		handler:  handler,
		recorder: recorder,
		logger:   logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("feed poller started", "interval", p.cfg.Interval)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("feed poller stopped",
			"cycles", p.cycles.Load(),
			"rows", p.rows.Load(),
			"errors", p.errors.Load(),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the counters.
func (p *Poller) Stats() Stats {
	s := Stats{
		Cycles: p.cycles.Load(),
		Rows:   p.rows.Load(),
		Errors: p.errors.Load(),
	}
	if ns := p.lastPoll.Load(); ns != 0 {
		s.LastPoll = time.Unix(0, ns)
	}
	return s
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.pollOnce()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

// pollOnce runs one Poll and hands the result to the handler.
func (p *Poller) pollOnce() {
	if p.ctx.Err() != nil {
		return
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	data, err := p.source.Poll(ctx)
	cancel()

	p.cycles.Add(1)
	p.lastPoll.Store(start.UnixNano())

	if err != nil {
		p.errors.Add(1)
		var mse *streamer.MissingSchemaError
		if errors.As(err, &mse) {
			p.logger.Warn("data for event types without schema", "event_types", mse.EventTypes)
		} else {
			p.logger.Warn("poll failed", "err", err)
		}
	}

	rows := 0
	for _, sd := range data {
		rows += sd.Rows()
	}
	p.rows.Add(int64(rows))

	if p.recorder != nil {
		p.recorder.PollCycle(time.Since(start), rows, err)
	}

	if len(data) == 0 || p.handler == nil {
		return
	}
	if err := p.handler.HandleData(data); err != nil {
		p.errors.Add(1)
		p.logger.Warn("handler failed", "err", err)
	}

	p.logger.Debug("poll cycle complete",
		"event_types", len(data),
		"rows", rows,
		"duration", time.Since(start),
	)
}
