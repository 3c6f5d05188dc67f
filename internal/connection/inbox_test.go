package connection

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"
)

func msg(s string) Message {
	return Message{Data: []byte(s), ReceivedAt: time.Now()}
}

func TestInbox_PushPopOrder(t *testing.T) {
	b := newInbox(4)

	for i := 0; i < 100; i++ {
		if !b.push(msg(strconv.Itoa(i))) {
			t.Fatalf("push(%d) returned false", i)
		}
	}

	stats := b.stats()
	if stats.Count != 100 {
		t.Errorf("Count = %d, want 100", stats.Count)
	}
	if stats.ResizeCount < 3 {
		t.Errorf("ResizeCount = %d, expected at least 3 resizes", stats.ResizeCount)
	}

	for i := 0; i < 100; i++ {
		m, ok, err := b.pop()
		if !ok || err != nil {
			t.Fatalf("pop() = %v, %v for item %d", ok, err, i)
		}
		if string(m.Data) != strconv.Itoa(i) {
			t.Errorf("got %s, want %d", m.Data, i)
		}
	}
}

func TestInbox_WrapAround(t *testing.T) {
	b := newInbox(5)

	b.push(msg("1"))
	b.push(msg("2"))
	b.push(msg("3"))
	b.pop()
	b.pop()
	b.push(msg("4"))
	b.push(msg("5"))
	b.push(msg("6"))
	b.push(msg("7"))
	b.push(msg("8"))

	for _, want := range []string{"3", "4", "5", "6", "7", "8"} {
		m, ok, _ := b.pop()
		if !ok {
			t.Fatalf("pop failed, expected %s", want)
		}
		if string(m.Data) != want {
			t.Errorf("got %s, want %s", m.Data, want)
		}
	}
}

func TestInbox_WaitModes(t *testing.T) {
	ctx := context.Background()

	t.Run("no wait on empty", func(t *testing.T) {
		b := newInbox(4)
		start := time.Now()
		if _, err := b.wait(ctx, NoWait); !errors.Is(err, ErrNoMessage) {
			t.Errorf("wait(NoWait) error = %v, want ErrNoMessage", err)
		}
		if time.Since(start) > 50*time.Millisecond {
			t.Error("wait(NoWait) blocked")
		}
	})

	t.Run("bounded wait times out", func(t *testing.T) {
		b := newInbox(4)
		if _, err := b.wait(ctx, 20*time.Millisecond); !errors.Is(err, ErrNoMessage) {
			t.Errorf("wait(20ms) error = %v, want ErrNoMessage", err)
		}
	})

	t.Run("wait forever until push", func(t *testing.T) {
		b := newInbox(4)
		got := make(chan string, 1)
		go func() {
			m, err := b.wait(ctx, WaitForever)
			if err == nil {
				got <- string(m.Data)
			}
		}()

		time.Sleep(10 * time.Millisecond)
		b.push(msg("hello"))

		select {
		case s := <-got:
			if s != "hello" {
				t.Errorf("got %q, want hello", s)
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for blocked wait")
		}
	})

	t.Run("wait forever honours ctx", func(t *testing.T) {
		b := newInbox(4)
		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		if _, err := b.wait(cctx, WaitForever); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("wait error = %v, want DeadlineExceeded", err)
		}
	})
}

func TestInbox_CloseDrainsThenErrors(t *testing.T) {
	b := newInbox(4)
	b.push(msg("1"))
	b.push(msg("2"))

	closeErr := errors.New("socket gone")
	b.close(closeErr)

	if b.push(msg("3")) {
		t.Error("push should return false after close")
	}

	for _, want := range []string{"1", "2"} {
		m, err := b.wait(context.Background(), NoWait)
		if err != nil || string(m.Data) != want {
			t.Errorf("wait() = %q, %v; want %s", m.Data, err, want)
		}
	}

	if _, err := b.wait(context.Background(), WaitForever); !errors.Is(err, closeErr) {
		t.Errorf("wait after drain error = %v, want %v", err, closeErr)
	}
}

func TestInbox_CloseUnblocksWait(t *testing.T) {
	b := newInbox(4)
	done := make(chan error, 1)

	go func() {
		_, err := b.wait(context.Background(), WaitForever)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	b.close(ErrNotConnected)

	select {
	case err := <-done:
		if !errors.Is(err, ErrNotConnected) {
			t.Errorf("err = %v, want ErrNotConnected", err)
		}
	case <-time.After(time.Second):
		t.Fatal("close did not unblock wait")
	}
}

func TestInbox_ConcurrentPushWait(t *testing.T) {
	b := newInbox(10)
	const numItems = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < numItems; i++ {
			b.push(msg(strconv.Itoa(i)))
		}
	}()

	seen := make(map[string]bool)
	for len(seen) < numItems {
		m, err := b.wait(context.Background(), time.Second)
		if err != nil {
			t.Fatalf("wait error after %d items: %v", len(seen), err)
		}
		seen[string(m.Data)] = true
	}
	wg.Wait()

	if n := b.stats().Count; n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestNewInbox_MinCapacity(t *testing.T) {
	if got := newInbox(0).stats().Capacity; got != 1 {
		t.Errorf("Capacity = %d, want 1 for initial capacity 0", got)
	}
	if got := newInbox(-5).stats().Capacity; got != 1 {
		t.Errorf("Capacity = %d, want 1 for negative initial capacity", got)
	}
}
