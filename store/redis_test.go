package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	goCred "github.com/MrEthical07/goCred"
)

func newRedisStore(t *testing.T) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "test")
}

func seedRedisUser(t *testing.T, s *Redis, username string) {
	t.Helper()
	err := s.SaveUser(context.Background(), &goCred.User{
		ID:           "id-" + username,
		Username:     username,
		PasswordHash: []byte{1, 2, 3},
		PasswordSalt: []byte{4, 5, 6},
		Claims:       []goCred.Claim{{Name: "role", Type: "string", Value: "member"}},
	})
	if err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
}

func TestRedisUserRoundTrip(t *testing.T) {
	s := newRedisStore(t)
	seedRedisUser(t, s, "alice")

	user, err := s.FindUserByName(context.Background(), "alice")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user == nil || user.ID != "id-alice" || user.Username != "alice" {
		t.Fatalf("unexpected user %+v", user)
	}
	if len(user.Claims) != 1 || user.Claims[0].Name != "role" {
		t.Fatalf("claims did not survive the round trip: %+v", user.Claims)
	}
	if len(user.PasswordHash) != 3 || len(user.PasswordSalt) != 3 {
		t.Fatal("password fields did not survive the round trip")
	}

	missing, err := s.FindUserByName(context.Background(), "nobody")
	if err != nil || missing != nil {
		t.Fatalf("absent user: user=%v err=%v", missing, err)
	}
}

func TestRedisRefreshRotation(t *testing.T) {
	s := newRedisStore(t)
	seedRedisUser(t, s, "alice")

	now := time.Now().UTC().Truncate(time.Second)
	first := goCred.RefreshToken{Token: "value-1", Created: now, Expires: now.Add(time.Hour)}
	if err := s.SetActiveRefreshToken(context.Background(), "alice", first); err != nil {
		t.Fatalf("set active failed: %v", err)
	}
	if err := s.SetActiveRefreshToken(context.Background(), "nobody", first); !errors.Is(err, goCred.ErrUserNotFound) {
		t.Fatalf("set active for absent user: expected ErrUserNotFound, got %v", err)
	}

	user, err := s.FindUserByRefreshToken(context.Background(), "value-1")
	if err != nil || user == nil || user.Username != "alice" {
		t.Fatalf("lookup by refresh: user=%v err=%v", user, err)
	}
	if !user.RefreshTokenExpires.Equal(first.Expires) {
		t.Fatalf("expiry = %v, want %v", user.RefreshTokenExpires, first.Expires)
	}

	second := goCred.RefreshToken{Token: "value-2", Created: now, Expires: now.Add(2 * time.Hour)}
	rotated, err := s.RotateRefreshToken(context.Background(), "value-1", second)
	if err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if rotated == nil || rotated.RefreshToken != "value-2" {
		t.Fatalf("rotated user %+v", rotated)
	}

	if user, _ := s.FindUserByRefreshToken(context.Background(), "value-1"); user != nil {
		t.Fatal("rotated-away value still resolves")
	}
	if _, err := s.RotateRefreshToken(context.Background(), "value-1", second); !errors.Is(err, goCred.ErrRefreshInvalid) {
		t.Fatalf("replayed rotate: expected ErrRefreshInvalid, got %v", err)
	}

	// A second legitimate set replaces the index entry for the old value.
	third := goCred.RefreshToken{Token: "value-3", Created: now, Expires: now.Add(time.Hour)}
	if err := s.SetActiveRefreshToken(context.Background(), "alice", third); err != nil {
		t.Fatalf("set active failed: %v", err)
	}
	if user, _ := s.FindUserByRefreshToken(context.Background(), "value-2"); user != nil {
		t.Fatal("replaced value still resolves")
	}
}

func TestRedisCounterOps(t *testing.T) {
	s := newRedisStore(t)
	credentialID := []byte{0xde, 0xad, 0xbe, 0xef}

	if err := s.AdvanceAssertionCounter(context.Background(), credentialID, 0); !errors.Is(err, goCred.ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}
	if err := s.SetAssertionCounter(context.Background(), credentialID, 0); !errors.Is(err, goCred.ErrCredentialNotFound) {
		t.Fatalf("reset absent: expected ErrCredentialNotFound, got %v", err)
	}

	registered := time.Now().UTC().Truncate(time.Second)
	err := s.SaveAssertionCredential(context.Background(), &goCred.AssertionCredential{
		CredentialID:     credentialID,
		UserHandle:       []byte("user-1"),
		PublicKey:        []byte("public-key"),
		AttestationType:  "none",
		SignatureCounter: 5,
		RegisteredAt:     registered,
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	cred, err := s.FindAssertionCredential(context.Background(), credentialID)
	if err != nil || cred == nil {
		t.Fatalf("find failed: %v", err)
	}
	if cred.SignatureCounter != 5 || cred.AttestationType != "none" {
		t.Fatalf("unexpected credential %+v", cred)
	}
	if !cred.RegisteredAt.Equal(registered) {
		t.Fatalf("registered at = %v, want %v", cred.RegisteredAt, registered)
	}

	if err := s.AdvanceAssertionCounter(context.Background(), credentialID, 4); !errors.Is(err, goCred.ErrCounterMismatch) {
		t.Fatalf("stale advance: expected ErrCounterMismatch, got %v", err)
	}
	if err := s.AdvanceAssertionCounter(context.Background(), credentialID, 5); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	cred, _ = s.FindAssertionCredential(context.Background(), credentialID)
	if cred.SignatureCounter != 6 {
		t.Fatalf("counter = %d, want 6", cred.SignatureCounter)
	}

	if err := s.SetAssertionCounter(context.Background(), credentialID, 0); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	cred, _ = s.FindAssertionCredential(context.Background(), credentialID)
	if cred.SignatureCounter != 0 {
		t.Fatalf("counter after reset = %d", cred.SignatureCounter)
	}
}

func TestRedisRefreshEvents(t *testing.T) {
	s := newRedisStore(t)

	stamp := time.Now().UTC().Truncate(time.Second)
	for i, reason := range []goCred.IssueReason{goCred.ReasonLogin, goCred.ReasonRefreshToken} {
		err := s.AppendRefreshEvent(context.Background(), goCred.RefreshEvent{
			ID:        string(rune('a' + i)),
			Username:  "alice",
			UserAgent: "curl/8",
			Reason:    reason,
			Timestamp: stamp,
		})
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	events, err := s.RefreshEvents(context.Background(), "alice")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events", len(events))
	}
	if events[0].Reason != goCred.ReasonLogin || events[1].Reason != goCred.ReasonRefreshToken {
		t.Fatalf("events out of order: %+v", events)
	}
	if !events[0].Timestamp.Equal(stamp) || events[0].UserAgent != "curl/8" {
		t.Fatalf("event fields did not survive: %+v", events[0])
	}

	none, err := s.RefreshEvents(context.Background(), "nobody")
	if err != nil || len(none) != 0 {
		t.Fatalf("absent history: events=%v err=%v", none, err)
	}
}
