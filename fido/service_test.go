package fido

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"testing"

	goCred "github.com/MrEthical07/goCred"
	"github.com/MrEthical07/goCred/store"
)

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()

	secret := make([]byte, 128)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("secret generation failed: %v", err)
	}
	cfg := goCred.DefaultConfig()
	cfg.Token.Secret = secret
	cfg.Token.Issuer = "https://issuer.test"
	cfg.Token.Audience = "https://audience.test"

	users := store.NewMemory()
	if err := users.SaveUser(context.Background(), &goCred.User{
		ID:       "user-1",
		Username: "alice",
	}); err != nil {
		t.Fatalf("seed user failed: %v", err)
	}

	engine, err := goCred.New().WithConfig(cfg).WithStore(users).Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	service, err := NewService(Config{
		RPID:          "issuer.test",
		RPDisplayName: "Issuer Test",
		RPOrigins:     []string{"https://issuer.test"},
	}, engine, users)
	if err != nil {
		t.Fatalf("service construction failed: %v", err)
	}
	return service, users
}

func TestBeginRegistrationIssuesOptions(t *testing.T) {
	service, _ := newTestService(t)

	options, challengeID, err := service.BeginRegistration(context.Background(), "alice")
	if err != nil {
		t.Fatalf("begin registration failed: %v", err)
	}
	if challengeID == "" {
		t.Fatal("no challenge ID issued")
	}
	if len(options.Response.Challenge) == 0 {
		t.Fatal("options carry no challenge")
	}
	if options.Response.RelyingParty.ID != "issuer.test" {
		t.Fatalf("relying party ID = %q", options.Response.RelyingParty.ID)
	}
	if options.Response.User.Name != "alice" {
		t.Fatalf("user entity name = %q", options.Response.User.Name)
	}
}

func TestBeginRegistrationUnknownUser(t *testing.T) {
	service, _ := newTestService(t)

	if _, _, err := service.BeginRegistration(context.Background(), "nobody"); !errors.Is(err, goCred.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFinishConsumesChallenge(t *testing.T) {
	service, _ := newTestService(t)

	_, challengeID, err := service.BeginRegistration(context.Background(), "alice")
	if err != nil {
		t.Fatalf("begin registration failed: %v", err)
	}

	// A malformed response still consumes the pending options.
	if _, err := service.FinishRegistration(context.Background(), challengeID, strings.NewReader("{}")); err == nil {
		t.Fatal("empty attestation response accepted")
	}
	if _, err := service.FinishRegistration(context.Background(), challengeID, strings.NewReader("{}")); !errors.Is(err, goCred.ErrChallengeNotFound) {
		t.Fatalf("replayed challenge: expected ErrChallengeNotFound, got %v", err)
	}
}

func TestFinishLoginUnknownChallenge(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.FinishLogin(context.Background(), "never-issued", strings.NewReader("{}")); !errors.Is(err, goCred.ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}
}

func TestBeginLoginIsUsernameless(t *testing.T) {
	service, _ := newTestService(t)

	options, challengeID, err := service.BeginLogin(context.Background())
	if err != nil {
		t.Fatalf("begin login failed: %v", err)
	}
	if challengeID == "" {
		t.Fatal("no challenge ID issued")
	}
	if len(options.Response.Challenge) == 0 {
		t.Fatal("options carry no challenge")
	}
	if len(options.Response.AllowedCredentials) != 0 {
		t.Fatal("discoverable login must not pre-list credentials")
	}
}

func TestCeremonyUserAdapter(t *testing.T) {
	user := &goCred.User{ID: "user-1", Username: "alice"}
	record := &goCred.AssertionCredential{
		CredentialID:     []byte("cred"),
		PublicKey:        []byte("key"),
		AttestationType:  "none",
		SignatureCounter: 7,
	}

	adapted := newCeremonyUser(user, credentialFromRecord(record))
	if string(adapted.WebAuthnID()) != "user-1" {
		t.Fatalf("ID = %q", adapted.WebAuthnID())
	}
	if adapted.WebAuthnName() != "alice" || adapted.WebAuthnDisplayName() != "alice" {
		t.Fatal("names do not mirror the user record")
	}
	creds := adapted.WebAuthnCredentials()
	if len(creds) != 1 || creds[0].Authenticator.SignCount != 7 {
		t.Fatalf("credentials = %+v", creds)
	}
}
