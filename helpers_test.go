package goCred

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"testing"
	"time"
)

// fakeStore is the in-test CredentialStore double. Same CAS contract as the
// real implementations, one mutex.
type fakeStore struct {
	mu      sync.Mutex
	users   map[string]*User
	refresh map[string]string
	creds   map[string]*AssertionCredential
	events  map[string][]RefreshEvent

	failAppendEvent bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[string]*User),
		refresh: make(map[string]string),
		creds:   make(map[string]*AssertionCredential),
		events:  make(map[string][]RefreshEvent),
	}
}

func (s *fakeStore) addUser(username string, claims ...Claim) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = &User{
		ID:       "id-" + username,
		Username: username,
		Claims:   claims,
	}
}

func (s *fakeStore) setRefreshExpiry(username string, expires time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[username]; ok {
		user.RefreshTokenExpires = expires
	}
}

func (s *fakeStore) FindUserByName(_ context.Context, username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (s *fakeStore) FindUserByRefreshToken(_ context.Context, token string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.refresh[token]
	if !ok {
		return nil, nil
	}
	clone := *s.users[username]
	return &clone, nil
}

func (s *fakeStore) SetActiveRefreshToken(_ context.Context, username string, token RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return ErrUserNotFound
	}
	if user.RefreshToken != "" {
		delete(s.refresh, user.RefreshToken)
	}
	user.RefreshToken = token.Token
	user.RefreshTokenCreated = token.Created
	user.RefreshTokenExpires = token.Expires
	s.refresh[token.Token] = username
	return nil
}

func (s *fakeStore) RotateRefreshToken(_ context.Context, presented string, next RefreshToken) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.refresh[presented]
	if !ok {
		return nil, ErrRefreshInvalid
	}
	user := s.users[username]
	if user.RefreshToken != presented {
		return nil, ErrRefreshInvalid
	}
	delete(s.refresh, presented)
	user.RefreshToken = next.Token
	user.RefreshTokenCreated = next.Created
	user.RefreshTokenExpires = next.Expires
	s.refresh[next.Token] = username
	clone := *user
	return &clone, nil
}

func (s *fakeStore) FindAssertionCredential(_ context.Context, credentialID []byte) (*AssertionCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[fakeCredKey(credentialID)]
	if !ok {
		return nil, nil
	}
	clone := *cred
	return &clone, nil
}

func (s *fakeStore) SaveAssertionCredential(_ context.Context, cred *AssertionCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *cred
	s.creds[fakeCredKey(cred.CredentialID)] = &clone
	return nil
}

func (s *fakeStore) SetAssertionCounter(_ context.Context, credentialID []byte, counter uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[fakeCredKey(credentialID)]
	if !ok {
		return ErrCredentialNotFound
	}
	cred.SignatureCounter = counter
	return nil
}

func (s *fakeStore) AdvanceAssertionCounter(_ context.Context, credentialID []byte, presented uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[fakeCredKey(credentialID)]
	if !ok {
		return ErrCredentialNotFound
	}
	if cred.SignatureCounter != presented {
		return ErrCounterMismatch
	}
	cred.SignatureCounter = presented + 1
	return nil
}

func (s *fakeStore) AppendRefreshEvent(_ context.Context, event RefreshEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppendEvent {
		return ErrStoreUnavailable
	}
	s.events[event.Username] = append(s.events[event.Username], event)
	return nil
}

func (s *fakeStore) RefreshEvents(_ context.Context, username string) ([]RefreshEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]RefreshEvent, len(s.events[username]))
	copy(events, s.events[username])
	return events, nil
}

func fakeCredKey(credentialID []byte) string {
	return base64.RawURLEncoding.EncodeToString(credentialID)
}

func testConfig(t *testing.T) Config {
	t.Helper()
	secret := make([]byte, 128)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("secret generation failed: %v", err)
	}
	cfg := defaultConfig()
	cfg.Token.Secret = secret
	cfg.Token.Issuer = "https://issuer.test"
	cfg.Token.Audience = "https://audience.test"
	return cfg
}

func newTestEngine(t *testing.T) (*Engine, *fakeStore) {
	t.Helper()
	fake := newFakeStore()
	fake.addUser("alice", Claim{Name: "role", Type: "string", Value: "member"})

	engine, err := New().
		WithConfig(testConfig(t)).
		WithStore(fake).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, fake
}
