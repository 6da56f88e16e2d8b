package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ghostline-backend/internal/platform/apierr"
)

// queryTime accepts RFC3339 or unix milliseconds.
func queryTime(c *gin.Context, key string) (time.Time, bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return time.Time{}, false, nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, apierr.BadRequest("invalid_"+key, fmt.Errorf("%s: want RFC3339 or unix ms", key))
	}
	return t.UTC(), true, nil
}

func requiredTime(c *gin.Context, key string) (time.Time, error) {
	t, ok, err := queryTime(c, key)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, apierr.BadRequest("missing_"+key, fmt.Errorf("%s is required", key))
	}
	return t, nil
}

func queryFloat(c *gin.Context, key string) (float64, bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, apierr.BadRequest("invalid_"+key, fmt.Errorf("%s: %w", key, err))
	}
	return v, true, nil
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
