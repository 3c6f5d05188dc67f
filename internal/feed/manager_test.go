package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/tastystream/internal/streamer"
)

type fakeStreamer struct {
	mu         sync.Mutex
	state      streamer.State
	connectErr []error // consumed one per Connect
	pollErr    error
	connects   int
	closes     int
	subscribed []string
	data       map[string]*streamer.SubscriptionData
}

func (f *fakeStreamer) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if len(f.connectErr) > 0 {
		err := f.connectErr[0]
		f.connectErr = f.connectErr[1:]
		if err != nil {
			f.state = streamer.Failed
			return err
		}
	}
	f.state = streamer.ChannelOpen
	return nil
}

func (f *fakeStreamer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.state = streamer.Disconnected
	return nil
}

func (f *fakeStreamer) State() streamer.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeStreamer) Subscribe(ctx context.Context, eventType string, fields []string, symbols []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != streamer.ChannelOpen {
		return streamer.ErrNotConnected
	}
	f.subscribed = append(f.subscribed, eventType)
	return nil
}

func (f *fakeStreamer) Poll(ctx context.Context) (map[string]*streamer.SubscriptionData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.pollErr
	f.pollErr = nil
	return f.data, err
}

func fastConfig() Config {
	return Config{InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxElapsedTime: time.Second}
}

func TestManager_StartSubscribes(t *testing.T) {
	fake := &fakeStreamer{}
	subs := []Subscription{
		{EventType: "Quote", Symbols: []string{"SPY"}},
		{EventType: "Greeks", Symbols: []string{".SPY240119C470"}},
	}
	m := NewManager(fastConfig(), fake, subs, nil)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if len(fake.subscribed) != 2 || fake.subscribed[0] != "Quote" || fake.subscribed[1] != "Greeks" {
		t.Errorf("subscribed = %v", fake.subscribed)
	}
	if err := m.Ready(); err != nil {
		t.Errorf("Ready() = %v, want nil", err)
	}

	stats := m.Stats()
	if stats.Connects != 1 || !stats.Connected || stats.Subscriptions != 2 {
		t.Errorf("Stats = %+v", stats)
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if m.Ready() == nil {
		t.Error("Ready() should fail after Stop")
	}
}

func TestManager_RetriesConnect(t *testing.T) {
	fake := &fakeStreamer{connectErr: []error{errors.New("dial refused"), errors.New("dial refused"), nil}}
	m := NewManager(fastConfig(), fake, nil, nil)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if fake.connects != 3 {
		t.Errorf("connects = %d, want 3", fake.connects)
	}
	if got := m.Stats().Failures; got != 2 {
		t.Errorf("Failures = %d, want 2", got)
	}
}

func TestManager_UnauthorizedIsPermanent(t *testing.T) {
	rejected := &streamer.HandshakeError{Step: streamer.StepAuth, Reason: "rejected", Err: streamer.ErrNotAuthorized}
	fake := &fakeStreamer{connectErr: []error{rejected, nil}}
	m := NewManager(fastConfig(), fake, nil, nil)

	err := m.Start(context.Background())
	if !errors.Is(err, streamer.ErrNotAuthorized) {
		t.Fatalf("error = %v, want ErrNotAuthorized", err)
	}
	if fake.connects != 1 {
		t.Errorf("connects = %d, want 1", fake.connects)
	}
}

func TestManager_PollReconnects(t *testing.T) {
	fake := &fakeStreamer{}
	m := NewManager(fastConfig(), fake, []Subscription{{EventType: "Quote", Symbols: []string{"SPY"}}}, nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	fake.pollErr = errors.New("poll: connection lost")
	if _, err := m.Poll(context.Background()); err == nil {
		t.Fatal("expected poll error")
	}
	if fake.State() != streamer.Disconnected {
		t.Errorf("state = %v, want disconnected after transport failure", fake.State())
	}

	if _, err := m.Poll(context.Background()); err != nil {
		t.Fatalf("Poll after reconnect failed: %v", err)
	}
	if fake.connects != 2 {
		t.Errorf("connects = %d, want 2", fake.connects)
	}
	if len(fake.subscribed) != 2 {
		t.Errorf("subscriptions should be replayed, got %v", fake.subscribed)
	}
}

func TestManager_MissingSchemaKeepsConnection(t *testing.T) {
	fake := &fakeStreamer{}
	m := NewManager(fastConfig(), fake, nil, nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	fake.pollErr = &streamer.MissingSchemaError{EventTypes: []string{"Trade"}}
	_, err := m.Poll(context.Background())
	var missing *streamer.MissingSchemaError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingSchemaError", err)
	}
	if fake.closes != 0 {
		t.Errorf("closes = %d, want 0", fake.closes)
	}
}

func TestManager_AddWhileConnected(t *testing.T) {
	fake := &fakeStreamer{}
	m := NewManager(fastConfig(), fake, nil, nil)

	if err := m.Add(context.Background(), Subscription{EventType: "Trade", Symbols: []string{"AAPL"}}); err != nil {
		t.Fatalf("Add before connect failed: %v", err)
	}
	if len(fake.subscribed) != 0 {
		t.Errorf("Add before connect should defer, got %v", fake.subscribed)
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := m.Add(context.Background(), Subscription{EventType: "Quote", Symbols: []string{"SPY"}}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if len(fake.subscribed) != 2 || fake.subscribed[1] != "Quote" {
		t.Errorf("subscribed = %v", fake.subscribed)
	}
}

func TestManager_ContextCancelled(t *testing.T) {
	fake := &fakeStreamer{connectErr: []error{errors.New("down"), errors.New("down"), errors.New("down")}}
	cfg := Config{InitialInterval: time.Second, MaxInterval: time.Second}
	m := NewManager(cfg, fake, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := m.Start(ctx); err == nil {
		t.Fatal("expected error")
	}
	if time.Since(start) > time.Second {
		t.Error("Start should return promptly after ctx is done")
	}
}

type blockingStreamer struct {
	fakeStreamer
}

func (b *blockingStreamer) Connect(ctx context.Context) error {
	b.mu.Lock()
	b.connects++
	n := b.connects
	b.mu.Unlock()
	if n == 1 {
		<-ctx.Done()
		return ctx.Err()
	}
	return b.fakeStreamer.connectLocked()
}

func (f *fakeStreamer) connectLocked() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = streamer.ChannelOpen
	return nil
}

func TestManager_AttemptTimeout(t *testing.T) {
	b := &blockingStreamer{}
	cfg := fastConfig()
	cfg.AttemptTimeout = 20 * time.Millisecond
	m := NewManager(cfg, b, nil, nil)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if b.connects != 2 {
		t.Errorf("connects = %d, want 2", b.connects)
	}
}
