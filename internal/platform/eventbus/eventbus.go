// Package eventbus is an in-process publish/subscribe bus. One bus is created per process
// and passed to its producers and consumers; subscribers hold an explicit handle and release
// it with Close.
package eventbus

import (
	"sync"

	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

const DefaultBuffer = 32

type Bus[T any] struct {
	mu     sync.RWMutex
	log    *logger.Logger
	subs   map[uint64]*Subscription[T]
	next   uint64
	buffer int
	closed bool
}

type Subscription[T any] struct {
	C <-chan T

	ch   chan T
	id   uint64
	bus  *Bus[T]
	once sync.Once
}

func New[T any](log *logger.Logger, buffer int) *Bus[T] {
	if log == nil {
		log = logger.Nop()
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus[T]{
		log:    log.With("component", "EventBus"),
		subs:   make(map[uint64]*Subscription[T]),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. On a closed bus the returned channel is already closed.
func (b *Bus[T]) Subscribe() *Subscription[T] {
	ch := make(chan T, b.buffer)
	s := &Subscription[T]{C: ch, ch: ch, bus: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		s.once.Do(func() {})
		return s
	}
	b.next++
	s.id = b.next
	b.subs[s.id] = s
	return s
}

// Publish delivers ev to every subscriber without blocking; a full subscriber drops the event.
func (b *Bus[T]) Publish(ev T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		select {
		case s.ch <- ev:
		default:
			b.log.Warn("Dropping event; subscriber buffer full", "subscription", s.id)
		}
	}
}

func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close releases every subscription.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[uint64]*Subscription[T])
	b.mu.Unlock()
	for _, s := range subs {
		s.once.Do(func() { close(s.ch) })
	}
}

// Close unregisters the subscription and closes its channel. Safe to call more than once.
func (s *Subscription[T]) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		s.bus.mu.Unlock()
		close(s.ch)
	})
}
