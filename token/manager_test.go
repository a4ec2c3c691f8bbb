package token

import (
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	manager, err := NewManager(testSecret(), "https://issuer.test", "https://audience.test", 5*time.Minute)
	if err != nil {
		t.Fatalf("manager construction failed: %v", err)
	}
	return manager
}

func TestManagerRejectsShortSecret(t *testing.T) {
	if _, err := NewManager(make([]byte, 127), "iss", "aud", time.Minute); err == nil {
		t.Fatal("127-byte secret accepted")
	}
}

func TestManagerRoundTrip(t *testing.T) {
	manager := newTestManager(t)

	tokenStr, err := manager.Encode(map[string]any{"unique_name": "alice"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !manager.Validate(tokenStr) {
		t.Fatal("freshly encoded token does not validate")
	}
	if manager.Validate("") || manager.Validate("a.b.c") {
		t.Fatal("garbage validated")
	}
}

// The two pipelines share one wire format: tokens from either side must
// verify on the other.
func TestCodecManagerCrossCompatibility(t *testing.T) {
	codec := newTestCodec(t)
	manager := newTestManager(t)

	fromCodec, err := codec.Encode(map[string]any{"unique_name": "alice"})
	if err != nil {
		t.Fatalf("codec encode failed: %v", err)
	}
	if !manager.Validate(fromCodec) {
		t.Fatal("library pipeline rejects manually signed token")
	}

	fromManager, err := manager.Encode(map[string]any{"unique_name": "alice"})
	if err != nil {
		t.Fatalf("manager encode failed: %v", err)
	}
	if !codec.Validate(fromManager) {
		t.Fatal("manual pipeline rejects library-signed token")
	}

	if name, ok := codec.Claim(fromManager, "unique_name"); !ok || name != "alice" {
		t.Fatalf("claim read across pipelines = %q, %v", name, ok)
	}
}
