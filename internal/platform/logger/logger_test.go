package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsHashesDeviceIdentifiers(t *testing.T) {
	out := sanitizeKVs([]interface{}{"device_id", "abc-123", "count", 3, "api_token", "s3cr3t"})
	if len(out) != 6 {
		t.Fatalf("len: want=6 got=%d", len(out))
	}
	hashed, ok := out[1].(string)
	if !ok || !strings.HasPrefix(hashed, "hash:") || strings.Contains(hashed, "abc-123") {
		t.Fatalf("device_id: want hashed value got=%v", out[1])
	}
	if out[3] != 3 {
		t.Fatalf("count: want=3 got=%v", out[3])
	}
	if out[5] != "[REDACTED]" {
		t.Fatalf("api_token: want=[REDACTED] got=%v", out[5])
	}
}

func TestHashValueIsStable(t *testing.T) {
	a := HashValue("peer-1")
	b := HashValue("peer-1")
	if a != b {
		t.Fatalf("hash: want stable got=%q and %q", a, b)
	}
	if HashValue("") != "" {
		t.Fatalf("empty: want empty hash")
	}
	if len(a) != len("hash:")+12 {
		t.Fatalf("hash length: got=%d", len(a))
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"cell_id", "1:2", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("odd kv: got=%v", out)
	}
}
