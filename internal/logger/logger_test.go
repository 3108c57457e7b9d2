package logger

import "testing"

func TestSanitizeKVs_RedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{"user_id", "u1", "password", "hunter2", "jwt_token", "abc", "dangling"})

	if len(out) != 7 {
		t.Fatalf("expected 7 entries, got %d", len(out))
	}
	if out[1] != "u1" {
		t.Errorf("non-secret value changed: %v", out[1])
	}
	if out[3] != "[REDACTED]" || out[5] != "[REDACTED]" {
		t.Errorf("secrets not redacted: %v", out)
	}
	if out[6] != "dangling" {
		t.Errorf("odd trailing key dropped: %v", out)
	}
}

func TestNop_DoesNotPanic(t *testing.T) {
	l := Nop().With("component", "test")
	l.Info("hello", "k", "v")
	l.Sync()
}
