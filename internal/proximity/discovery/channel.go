package discovery

import (
	"context"
	"errors"
	"sync"
)

var ErrNotStarted = errors.New("discovery: adapter not started")

// Channel is an in-process Adapter fed by Emit. It backs simulators and tests.
type Channel struct {
	mu      sync.Mutex
	ch      chan Event
	started bool
	cfg     Config
}

func NewChannel(buffer int) *Channel {
	if buffer <= 0 {
		buffer = 64
	}
	return &Channel{ch: make(chan Event, buffer)}
}

func (c *Channel) Start(_ context.Context, cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
	c.cfg = cfg
	return nil
}

func (c *Channel) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil
	}
	c.started = false
	close(c.ch)
	return nil
}

func (c *Channel) Events() <-chan Event { return c.ch }

// Emit delivers ev, blocking while the buffer is full.
func (c *Channel) Emit(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return ErrNotStarted
	}
	c.ch <- ev
	return nil
}

func (c *Channel) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}
