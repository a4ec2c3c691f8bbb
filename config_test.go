package goCred

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestBuildRejectsShortSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Token.Secret = cfg.Token.Secret[:127]

	_, err := New().WithConfig(cfg).WithStore(newFakeStore()).Build()
	if err == nil {
		t.Fatal("127-byte secret accepted")
	}
	if !strings.Contains(err.Error(), "128") {
		t.Fatalf("error does not name the floor: %v", err)
	}
}

func TestBuildRequiresStore(t *testing.T) {
	if _, err := New().WithConfig(testConfig(t)).Build(); err == nil {
		t.Fatal("build succeeded without a credential store")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	builder := New().WithConfig(testConfig(t)).WithStore(newFakeStore())
	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	defer engine.Close()

	if _, err := builder.Build(); err == nil {
		t.Fatal("second build on the same builder succeeded")
	}
}

func TestConfigFromValues(t *testing.T) {
	secret := strings.Repeat("s", 128)

	cfg, err := ConfigFromValues(secret, "iss", "aud", "5", "7")
	if err != nil {
		t.Fatalf("valid values rejected: %v", err)
	}
	if cfg.Token.AccessTTL != 5*time.Minute {
		t.Fatalf("access TTL = %v", cfg.Token.AccessTTL)
	}
	if cfg.Refresh.TTL != 7*24*time.Hour {
		t.Fatalf("refresh TTL = %v", cfg.Refresh.TTL)
	}

	// Non-numeric TTLs are a construction error, never a silent default.
	if _, err := ConfigFromValues(secret, "iss", "aud", "five", "7"); err == nil {
		t.Fatal("non-numeric access TTL accepted")
	}
	if _, err := ConfigFromValues(secret, "iss", "aud", "5", "week"); err == nil {
		t.Fatal("non-numeric refresh TTL accepted")
	}
	if _, err := ConfigFromValues("short", "iss", "aud", "5", "7"); err == nil {
		t.Fatal("short secret accepted")
	}
}

func TestValidateConfigBackends(t *testing.T) {
	cfg := testConfig(t)
	cfg.Token.Backend = "hs512"
	if err := validateConfig(cfg); err == nil {
		t.Fatal("unknown backend accepted")
	}

	for _, backend := range []TokenBackend{BackendManual, BackendLibrary} {
		cfg.Token.Backend = backend
		if err := validateConfig(cfg); err != nil {
			t.Fatalf("backend %q rejected: %v", backend, err)
		}
	}
}

func TestBuildWithLibraryBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Token.Backend = BackendLibrary

	fake := newFakeStore()
	fake.addUser("alice")
	engine, err := New().WithConfig(cfg).WithStore(fake).Build()
	if err != nil {
		t.Fatalf("library backend build failed: %v", err)
	}
	defer engine.Close()

	pair, err := engine.CreatePair(context.Background(), "alice")
	if err != nil {
		t.Fatalf("create pair failed: %v", err)
	}
	if !engine.ValidateAccessToken(pair.AccessToken) {
		t.Fatal("library-signed token does not validate")
	}
}
