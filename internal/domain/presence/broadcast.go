package presence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type BroadcastType string

const (
	BroadcastGhost   BroadcastType = "ghost"
	BroadcastWindow  BroadcastType = "window"
	BroadcastDensity BroadcastType = "density"
)

func (t BroadcastType) Valid() bool {
	switch t {
	case BroadcastGhost, BroadcastWindow, BroadcastDensity:
		return true
	}
	return false
}

// BroadcastPayload is the sum of the per-kind payloads. Each variant reports its own kind.
type BroadcastPayload interface {
	Kind() BroadcastType
}

type GhostPayload struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Intensity float64 `json:"intensity"`
	Glyph     string  `json:"glyph,omitempty"`
}

func (GhostPayload) Kind() BroadcastType { return BroadcastGhost }

type WindowPayload struct {
	StartedAt        time.Time `json:"started_at"`
	EndsAt           time.Time `json:"ends_at"`
	PositionX        float64   `json:"position_x"`
	PositionY        float64   `json:"position_y"`
	TriggeredBy      string    `json:"triggered_by,omitempty"`
	ParticipantCount int       `json:"participant_count"`
}

func (WindowPayload) Kind() BroadcastType { return BroadcastWindow }

type DensityPayload struct {
	CellID string `json:"cell_id"`
}

func (DensityPayload) Kind() BroadcastType { return BroadcastDensity }

func EncodePayload(p BroadcastPayload) (datatypes.JSON, error) {
	if p == nil {
		return nil, fmt.Errorf("broadcast payload required")
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.Kind(), err)
	}
	return datatypes.JSON(b), nil
}

// DecodePayload picks the variant by kind.
func DecodePayload(kind BroadcastType, raw []byte) (BroadcastPayload, error) {
	switch kind {
	case BroadcastGhost:
		var p GhostPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode ghost payload: %w", err)
		}
		return p, nil
	case BroadcastWindow:
		var p WindowPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode window payload: %w", err)
		}
		return p, nil
	case BroadcastDensity:
		var p DensityPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode density payload: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown broadcast type %q", kind)
	}
}

// Signal is a decoded Broadcast row.
type Signal struct {
	ID        uuid.UUID        `json:"id"`
	Type      BroadcastType    `json:"type"`
	DeviceID  string           `json:"device_id"`
	Payload   BroadcastPayload `json:"payload"`
	ExpiresAt time.Time        `json:"expires_at"`
	CreatedAt time.Time        `json:"created_at"`
}

func (b *Broadcast) Decode() (Signal, error) {
	if b == nil {
		return Signal{}, fmt.Errorf("nil broadcast")
	}
	p, err := DecodePayload(b.Type, b.Payload)
	if err != nil {
		return Signal{}, err
	}
	return Signal{
		ID:        b.ID,
		Type:      b.Type,
		DeviceID:  b.DeviceID,
		Payload:   p,
		ExpiresAt: b.ExpiresAt,
		CreatedAt: b.CreatedAt,
	}, nil
}

// GhostPing is the read shape of a live ghost broadcast.
type GhostPing struct {
	ID        uuid.UUID    `json:"id"`
	DeviceID  string       `json:"device_id"`
	Payload   GhostPayload `json:"payload"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}
