package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedaction(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("login",
		"email", "parent@example.com",
		"password", "hunter22",
		"access_token", "abc",
		"value", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0aaaa.sig",
		"user_id", 42,
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	for _, key := range []string{"email", "password", "access_token", "value"} {
		if fields[key] != "[REDACTED]" {
			t.Errorf("%s = %v, want [REDACTED]", key, fields[key])
		}
	}
	if fields["user_id"] != int64(42) {
		t.Errorf("user_id = %v, want 42", fields["user_id"])
	}
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core)).With("component", "sessions")

	log.Warn("slow query")

	entries := logs.All()
	if len(entries) != 1 || entries[0].ContextMap()["component"] != "sessions" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}
