package connection

import (
	"context"
	"sync"
	"time"
)

// inbox is a FIFO of received frames that doubles its capacity when it
// reaches 70% full, so the reader goroutine never blocks on a slow consumer.
type inbox struct {
	mu       sync.Mutex
	buf      []Message
	head     int // read position
	tail     int // write position
	count    int
	capacity int
	closed   bool
	err      error // reported once the inbox is closed and drained

	// ready has capacity 1 and is signalled on every push and on close.
	ready chan struct{}

	// Stats
	totalReceived int64
	totalSent     int64
	resizeCount   int
}

func newInbox(initialCapacity int) *inbox {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &inbox{
		buf:      make([]Message, initialCapacity),
		capacity: initialCapacity,
		ready:    make(chan struct{}, 1),
	}
}

// push appends msg. Returns false if the inbox is closed.
func (b *inbox) push(msg Message) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}

	threshold := (b.capacity * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if b.count+1 >= threshold {
		b.grow()
	}

	b.buf[b.tail] = msg
	b.tail = (b.tail + 1) % b.capacity
	b.count++
	b.totalReceived++
	b.mu.Unlock()

	b.signal()
	return true
}

// pop removes the oldest frame. When empty it reports the close error, if any.
func (b *inbox) pop() (Message, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		if b.closed {
			return Message{}, false, b.err
		}
		return Message{}, false, nil
	}

	msg := b.buf[b.head]
	b.buf[b.head] = Message{}
	b.head = (b.head + 1) % b.capacity
	b.count--
	b.totalSent++
	return msg, true, nil
}

// wait pops one frame according to the wait mode.
func (b *inbox) wait(ctx context.Context, d time.Duration) (Message, error) {
	var deadline <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		msg, ok, err := b.pop()
		if ok {
			return msg, nil
		}
		if err != nil {
			return Message{}, err
		}
		if d == NoWait {
			return Message{}, ErrNoMessage
		}

		select {
		case <-b.ready:
		case <-deadline:
			return Message{}, ErrNoMessage
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

// close stops accepting frames. Queued frames remain readable; err is
// returned after they are drained.
func (b *inbox) close(err error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.err = err
	b.mu.Unlock()

	b.signal()
}

func (b *inbox) signal() {
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

func (b *inbox) stats() InboxStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return InboxStats{
		Count:         b.count,
		Capacity:      b.capacity,
		TotalReceived: b.totalReceived,
		TotalSent:     b.totalSent,
		ResizeCount:   b.resizeCount,
	}
}

// InboxStats contains inbox statistics.
type InboxStats struct {
	Count         int
	Capacity      int
	TotalReceived int64
	TotalSent     int64
	ResizeCount   int
}

// grow doubles the capacity. Must be called with lock held.
func (b *inbox) grow() {
	newCapacity := b.capacity * 2
	newBuf := make([]Message, newCapacity)

	if b.count > 0 {
		if b.head < b.tail {
			copy(newBuf, b.buf[b.head:b.tail])
		} else {
			n := copy(newBuf, b.buf[b.head:])
			copy(newBuf[n:], b.buf[:b.tail])
		}
	}

	b.buf = newBuf
	b.head = 0
	b.tail = b.count
	b.capacity = newCapacity
	b.resizeCount++
}
