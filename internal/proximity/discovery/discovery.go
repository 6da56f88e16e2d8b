// Package discovery is the boundary to the peer-discovery transport. The engine only
// consumes these events and calls Start/Stop; it never looks inside an adapter.
package discovery

import (
	"context"
	"fmt"
)

// StateConnected is the session state that opens an encounter.
const StateConnected = 2

// Event is one of PeerFound, PeerLost, SessionState, NearbyUpdate or Error.
type Event interface {
	isEvent()
}

type PeerFound struct {
	ID string
}

type PeerLost struct {
	ID string
}

type SessionState struct {
	ID    string
	State int
}

type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NearbyObject is one peer's ranging sample. Distance is in metres; negative means unknown.
type NearbyObject struct {
	ID        string
	Distance  float64
	Direction *Vector
}

type NearbyUpdate struct {
	Objects []NearbyObject
}

type Error struct {
	Source  string
	Message string
}

func (PeerFound) isEvent()    {}
func (PeerLost) isEvent()     {}
func (SessionState) isEvent() {}
func (NearbyUpdate) isEvent() {}
func (Error) isEvent()        {}

func (e Error) String() string {
	if e.Source == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

type Config struct {
	ServiceType string
	DisplayName string
	// Ranging asks the transport for distance updates when it supports them.
	Ranging bool
}

type Adapter interface {
	Start(ctx context.Context, cfg Config) error
	Stop() error
	// Events is closed when the adapter stops.
	Events() <-chan Event
}
