package goCred

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	internalaudit "github.com/MrEthical07/goCred/internal/audit"
)

func newAuditedEngine(t *testing.T, sink AuditSink) *Engine {
	t.Helper()
	cfg := testConfig(t)
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false

	fake := newFakeStore()
	fake.addUser("alice")

	engine, err := New().WithConfig(cfg).WithStore(fake).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	return engine
}

func TestAuditEmitsLifecycleEvents(t *testing.T) {
	sink := NewChannelSink(16)
	engine := newAuditedEngine(t, sink)
	defer engine.Close()

	pair, err := engine.CreatePair(context.Background(), "alice")
	if err != nil {
		t.Fatalf("create pair failed: %v", err)
	}
	if _, err := engine.Refresh(context.Background(), pair.RefreshToken.Token); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if _, err := engine.Refresh(context.Background(), "bogus"); err == nil {
		t.Fatal("bogus refresh succeeded")
	}

	want := []string{
		internalaudit.EventPairIssued,
		internalaudit.EventPairRefreshed,
		internalaudit.EventRefreshRejected,
	}
	for _, eventType := range want {
		select {
		case event := <-sink.Events():
			if event.EventType != eventType {
				t.Fatalf("event type = %q, want %q", event.EventType, eventType)
			}
			if eventType == internalaudit.EventRefreshRejected && event.Success {
				t.Fatal("rejected refresh audited as success")
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", eventType)
		}
	}
}

func TestAuditJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	engine := newAuditedEngine(t, NewJSONWriterSink(&buf))

	if _, err := engine.CreatePair(context.Background(), "alice"); err != nil {
		t.Fatalf("create pair failed: %v", err)
	}
	// Close drains the dispatcher before we read the buffer.
	engine.Close()

	scanner := bufio.NewScanner(&buf)
	if !scanner.Scan() {
		t.Fatal("no audit line written")
	}
	var event AuditEvent
	if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
		t.Fatalf("audit line is not JSON: %v", err)
	}
	if event.EventType != internalaudit.EventPairIssued || !event.Success {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Username != "alice" {
		t.Fatalf("event username = %q", event.Username)
	}
}

func TestAuditDisabledByDefault(t *testing.T) {
	engine, _ := newTestEngine(t)

	if _, err := engine.CreatePair(context.Background(), "alice"); err != nil {
		t.Fatalf("create pair failed: %v", err)
	}
	if engine.AuditDropped() != 0 {
		t.Fatal("disabled audit reported drops")
	}
}
