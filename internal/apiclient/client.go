// Package apiclient talks to the ghostline HTTP API. It is the device side of the backing
// store: the proximity engine persists through it and reads signal memory from it.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/ghostline-backend/internal/domain"
	"github.com/yungbote/ghostline-backend/internal/domain/presence"
	"github.com/yungbote/ghostline-backend/internal/platform/apierr"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
	"github.com/yungbote/ghostline-backend/internal/services"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// UserAgent is sent on every request; empty uses the package default.
	UserAgent string
}

type Client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		log = logger.Nop()
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("apiclient: base url required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("apiclient: base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "ghostline-device/1"
	}
	return &Client{
		log:  log.With("client", "GhostlineAPI"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type idResp struct {
	ID uuid.UUID `json:"id"`
}

// -------------------- presence --------------------

func (c *Client) UpdatePresence(ctx context.Context, deviceID, cellID string) (uuid.UUID, error) {
	var out idResp
	err := c.do(ctx, http.MethodPut, "/api/presence/"+url.PathEscape(deviceID), nil, map[string]string{"cell_id": cellID}, &out)
	return out.ID, err
}

func (c *Client) RemovePresence(ctx context.Context, deviceID string) error {
	return c.do(ctx, http.MethodDelete, "/api/presence/"+url.PathEscape(deviceID), nil, nil, nil)
}

func (c *Client) GetPresenceCount(ctx context.Context) (types.PresenceCount, error) {
	var out struct {
		Count types.PresenceCount `json:"count"`
	}
	err := c.do(ctx, http.MethodGet, "/api/presence/count", nil, nil, &out)
	return out.Count, err
}

func (c *Client) SendPing(ctx context.Context, in services.PingInput) (uuid.UUID, error) {
	var out idResp
	err := c.do(ctx, http.MethodPost, "/api/pings", nil, in, &out)
	return out.ID, err
}

// -------------------- broadcasts --------------------

func (c *Client) SendGhostPing(ctx context.Context, deviceID string, payload presence.GhostPayload) (uuid.UUID, error) {
	body := struct {
		DeviceID string `json:"device_id"`
		presence.GhostPayload
	}{deviceID, payload}
	var out idResp
	err := c.do(ctx, http.MethodPost, "/api/broadcasts/ghost", nil, body, &out)
	return out.ID, err
}

func (c *Client) SendWindowBroadcast(ctx context.Context, deviceID string, payload presence.WindowPayload) (uuid.UUID, error) {
	body := struct {
		DeviceID string `json:"device_id"`
		presence.WindowPayload
	}{deviceID, payload}
	var out idResp
	err := c.do(ctx, http.MethodPost, "/api/broadcasts/window", nil, body, &out)
	return out.ID, err
}

func (c *Client) SendDensityPing(ctx context.Context, deviceID, cellID string) (uuid.UUID, error) {
	body := map[string]string{"device_id": deviceID, "cell_id": cellID}
	var out idResp
	err := c.do(ctx, http.MethodPost, "/api/broadcasts/density", nil, body, &out)
	return out.ID, err
}

func (c *Client) GetCurrentWindowMoment(ctx context.Context) (types.WindowMomentSignal, error) {
	var out struct {
		Window types.WindowMomentSignal `json:"window"`
	}
	err := c.do(ctx, http.MethodGet, "/api/broadcasts/window/current", nil, nil, &out)
	return out.Window, err
}

// -------------------- encounters / trails --------------------

func (c *Client) InsertEncounter(ctx context.Context, in services.EncounterInput) (uuid.UUID, error) {
	var out idResp
	err := c.do(ctx, http.MethodPost, "/api/encounters", nil, in, &out)
	return out.ID, err
}

func (c *Client) GetEncounterFrequency(ctx context.Context, deviceID string) ([]types.EncounterFrequency, error) {
	var out struct {
		Frequency []types.EncounterFrequency `json:"frequency"`
	}
	err := c.do(ctx, http.MethodGet, "/api/encounters/frequency/"+url.PathEscape(deviceID), nil, nil, &out)
	return out.Frequency, err
}

func (c *Client) InsertTrailPoint(ctx context.Context, in services.TrailPointInput) (uuid.UUID, error) {
	var out idResp
	err := c.do(ctx, http.MethodPost, "/api/trails", nil, in, &out)
	return out.ID, err
}

func (c *Client) InsertWindowMoment(ctx context.Context, in services.WindowMomentInput) (uuid.UUID, error) {
	var out idResp
	err := c.do(ctx, http.MethodPost, "/api/window-moments", nil, in, &out)
	return out.ID, err
}

func (c *Client) GetSnapshot(ctx context.Context, deviceID string, since time.Time) (types.TemporalSnapshot, error) {
	q := url.Values{}
	q.Set("since", since.UTC().Format(time.RFC3339))
	var out struct {
		Snapshot types.TemporalSnapshot `json:"snapshot"`
	}
	err := c.do(ctx, http.MethodGet, "/api/snapshot/"+url.PathEscape(deviceID), q, nil, &out)
	return out.Snapshot, err
}

// -------------------- helpers --------------------

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// do sends one request. Non-2xx responses come back as *apierr.Error carrying the server's
// status and code.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var rdr io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("apiclient: encode %s %s: %w", method, path, err)
		}
		rdr = &buf
	}
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env errorEnvelope
		_ = json.Unmarshal(raw, &env)
		msg := env.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.log.Debug("api request failed", "method", method, "path", path, "status", resp.StatusCode, "code", env.Error.Code)
		return apierr.New(resp.StatusCode, env.Error.Code, errors.New(msg))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("apiclient: decode %s %s: %w", method, path, err)
	}
	return nil
}
