package store

import (
	"context"
	"encoding/base64"
	"sync"

	goCred "github.com/MrEthical07/goCred"
)

// Memory is a mutex-guarded in-memory [goCred.CredentialStore]. It backs
// the test suites and small single-process deployments.
type Memory struct {
	mu           sync.Mutex
	users        map[string]*goCred.User
	refreshIndex map[string]string // active refresh value -> username
	creds        map[string]*goCred.AssertionCredential
	events       map[string][]goCred.RefreshEvent
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:        make(map[string]*goCred.User),
		refreshIndex: make(map[string]string),
		creds:        make(map[string]*goCred.AssertionCredential),
		events:       make(map[string][]goCred.RefreshEvent),
	}
}

// SaveUser creates or replaces a user record.
func (s *Memory) SaveUser(_ context.Context, user *goCred.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.users[user.Username]; ok && prev.RefreshToken != "" {
		delete(s.refreshIndex, prev.RefreshToken)
	}
	clone := *user
	s.users[user.Username] = &clone
	if clone.RefreshToken != "" {
		s.refreshIndex[clone.RefreshToken] = clone.Username
	}
	return nil
}

func (s *Memory) FindUserByName(_ context.Context, username string) (*goCred.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (s *Memory) FindUserByRefreshToken(_ context.Context, tokenValue string) (*goCred.User, error) {
	if tokenValue == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.refreshIndex[tokenValue]
	if !ok {
		return nil, nil
	}
	user := s.users[username]
	if user == nil || user.RefreshToken != tokenValue {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (s *Memory) SetActiveRefreshToken(_ context.Context, username string, token goCred.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return goCred.ErrUserNotFound
	}
	if user.RefreshToken != "" {
		delete(s.refreshIndex, user.RefreshToken)
	}
	user.RefreshToken = token.Token
	user.RefreshTokenCreated = token.Created
	user.RefreshTokenExpires = token.Expires
	s.refreshIndex[token.Token] = username
	return nil
}

func (s *Memory) RotateRefreshToken(_ context.Context, presented string, next goCred.RefreshToken) (*goCred.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.refreshIndex[presented]
	if !ok {
		return nil, goCred.ErrRefreshInvalid
	}
	user := s.users[username]
	if user == nil || user.RefreshToken != presented {
		return nil, goCred.ErrRefreshInvalid
	}
	delete(s.refreshIndex, presented)
	user.RefreshToken = next.Token
	user.RefreshTokenCreated = next.Created
	user.RefreshTokenExpires = next.Expires
	s.refreshIndex[next.Token] = username
	clone := *user
	return &clone, nil
}

func (s *Memory) FindAssertionCredential(_ context.Context, credentialID []byte) (*goCred.AssertionCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[credKey(credentialID)]
	if !ok {
		return nil, nil
	}
	clone := *cred
	return &clone, nil
}

func (s *Memory) SaveAssertionCredential(_ context.Context, cred *goCred.AssertionCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *cred
	s.creds[credKey(cred.CredentialID)] = &clone
	return nil
}

func (s *Memory) SetAssertionCounter(_ context.Context, credentialID []byte, counter uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[credKey(credentialID)]
	if !ok {
		return goCred.ErrCredentialNotFound
	}
	cred.SignatureCounter = counter
	return nil
}

func (s *Memory) AdvanceAssertionCounter(_ context.Context, credentialID []byte, presented uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[credKey(credentialID)]
	if !ok {
		return goCred.ErrCredentialNotFound
	}
	if cred.SignatureCounter != presented {
		return goCred.ErrCounterMismatch
	}
	cred.SignatureCounter = presented + 1
	return nil
}

func (s *Memory) AppendRefreshEvent(_ context.Context, event goCred.RefreshEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Username] = append(s.events[event.Username], event)
	return nil
}

func (s *Memory) RefreshEvents(_ context.Context, username string) ([]goCred.RefreshEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]goCred.RefreshEvent, len(s.events[username]))
	copy(events, s.events[username])
	return events, nil
}

func credKey(credentialID []byte) string {
	return base64.RawURLEncoding.EncodeToString(credentialID)
}
