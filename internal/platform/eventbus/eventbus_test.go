package eventbus

import (
	"testing"
	"time"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
	var zero T
	return zero
}

func TestBusFanOutAndUnsubscribe(t *testing.T) {
	b := New[string](nil, 4)
	a := b.Subscribe()
	c := b.Subscribe()

	b.Publish("hello")
	if got := recv(t, a.C); got != "hello" {
		t.Fatalf("a: want=hello got=%q", got)
	}
	if got := recv(t, c.C); got != "hello" {
		t.Fatalf("c: want=hello got=%q", got)
	}

	a.Close()
	a.Close()
	if b.Len() != 1 {
		t.Fatalf("Len after close: want=1 got=%d", b.Len())
	}
	if _, ok := <-a.C; ok {
		t.Fatalf("closed subscription channel should be closed")
	}

	b.Publish("again")
	if got := recv(t, c.C); got != "again" {
		t.Fatalf("c: want=again got=%q", got)
	}
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	b := New[int](nil, 1)
	s := b.Subscribe()
	b.Publish(1)
	b.Publish(2)
	if got := recv(t, s.C); got != 1 {
		t.Fatalf("first: want=1 got=%d", got)
	}
	select {
	case v := <-s.C:
		t.Fatalf("expected dropped event, got=%d", v)
	default:
	}
}

func TestBusCloseReleasesSubscribers(t *testing.T) {
	b := New[int](nil, 1)
	s := b.Subscribe()
	b.Close()
	if _, ok := <-s.C; ok {
		t.Fatalf("subscriber channel should close with bus")
	}
	s.Close()
	late := b.Subscribe()
	if _, ok := <-late.C; ok {
		t.Fatalf("subscribe after close should yield closed channel")
	}
	late.Close()
}
