package discovery

import (
	"context"
	"errors"
	"testing"
)

func TestChannelLifecycle(t *testing.T) {
	c := NewChannel(4)
	if err := c.Emit(PeerFound{ID: "p"}); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("emit before start: want ErrNotStarted got=%v", err)
	}
	if err := c.Start(context.Background(), Config{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Emit(SessionState{ID: "p", State: StateConnected}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	ev := <-c.Events()
	if ss, ok := ev.(SessionState); !ok || ss.ID != "p" || ss.State != StateConnected {
		t.Fatalf("event: got=%#v", ev)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, ok := <-c.Events(); ok {
		t.Fatalf("events: want closed after Stop")
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestErrorString(t *testing.T) {
	e := Error{Source: "session", Message: "invalidated"}
	if e.String() == "" {
		t.Fatalf("String: want non-empty")
	}
}
