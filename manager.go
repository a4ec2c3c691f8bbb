package goCred

import (
	"context"
	"encoding/base64"
)

// AuthenticationManager is the credential-kind-generic contract. Validate
// answers "are these credentials currently acceptable" without mutating
// state; Refresh exchanges them for successor credentials of the same kind
// and invalidates the presented ones.
type AuthenticationManager[K any] interface {
	ValidateCredentials(ctx context.Context, cred K) (bool, error)
	RefreshCredentials(ctx context.Context, cred K) (K, error)
}

var (
	_ AuthenticationManager[TokenPair]     = (*TokenPairManager)(nil)
	_ AuthenticationManager[AssertionPair] = (*AssertionPairManager)(nil)
)

// TokenPairManager is the [AuthenticationManager] over signed token pairs.
type TokenPairManager struct {
	engine *Engine
}

// TokenPairs returns the token-pair manager view of the engine.
func (e *Engine) TokenPairs() *TokenPairManager {
	return &TokenPairManager{engine: e}
}

// ValidateCredentials checks only the access token. Stateless: the refresh
// token plays no part in validation.
func (m *TokenPairManager) ValidateCredentials(_ context.Context, cred TokenPair) (bool, error) {
	if m == nil || m.engine == nil {
		return false, ErrEngineNotReady
	}
	return m.engine.ValidateAccessToken(cred.AccessToken), nil
}

// RefreshCredentials rotates the refresh token for a whole new pair.
func (m *TokenPairManager) RefreshCredentials(ctx context.Context, cred TokenPair) (TokenPair, error) {
	if m == nil || m.engine == nil {
		return TokenPair{}, ErrEngineNotReady
	}
	return m.engine.Refresh(ctx, cred.RefreshToken.Token)
}

// AssertionPairManager is the [AuthenticationManager] over public-key
// assertion state. Credential IDs travel base64url-encoded without padding.
type AssertionPairManager struct {
	engine *Engine
}

// AssertionPairs returns the assertion-pair manager view of the engine.
func (e *Engine) AssertionPairs() *AssertionPairManager {
	return &AssertionPairManager{engine: e}
}

// ValidateCredentials reports whether the stored counter equals the
// presented one exactly. A malformed credential ID is invalid, not an error.
func (m *AssertionPairManager) ValidateCredentials(ctx context.Context, cred AssertionPair) (bool, error) {
	if m == nil || m.engine == nil {
		return false, ErrEngineNotReady
	}
	id, err := decodeCredentialID(cred.CredentialID)
	if err != nil {
		return false, nil
	}
	return m.engine.ValidateAssertion(ctx, id, cred.Counter)
}

// RefreshCredentials advances the stored counter past the presented value
// and returns the successor pair.
func (m *AssertionPairManager) RefreshCredentials(ctx context.Context, cred AssertionPair) (AssertionPair, error) {
	if m == nil || m.engine == nil {
		return AssertionPair{}, ErrEngineNotReady
	}
	id, err := decodeCredentialID(cred.CredentialID)
	if err != nil {
		return AssertionPair{}, ErrCredentialNotFound
	}
	if err := m.engine.AdvanceAssertion(ctx, id, cred.Counter); err != nil {
		return AssertionPair{}, err
	}
	return AssertionPair{
		CredentialID: cred.CredentialID,
		Counter:      cred.Counter + 1,
	}, nil
}

// ValidateCredentials dispatches on which credential kind is populated.
// Exactly one field of cred must be set.
func (e *Engine) ValidateCredentials(ctx context.Context, cred Credentials) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	switch {
	case cred.TokenPair != nil && cred.AssertionPair != nil:
		return false, ErrCredentialsMalformed
	case cred.TokenPair != nil:
		return e.TokenPairs().ValidateCredentials(ctx, *cred.TokenPair)
	case cred.AssertionPair != nil:
		return e.AssertionPairs().ValidateCredentials(ctx, *cred.AssertionPair)
	default:
		return false, ErrCredentialsMalformed
	}
}

// RefreshCredentials dispatches on which credential kind is populated and
// returns a credentials value of the same kind.
func (e *Engine) RefreshCredentials(ctx context.Context, cred Credentials) (Credentials, error) {
	if e == nil {
		return Credentials{}, ErrEngineNotReady
	}
	switch {
	case cred.TokenPair != nil && cred.AssertionPair != nil:
		return Credentials{}, ErrCredentialsMalformed
	case cred.TokenPair != nil:
		pair, err := e.TokenPairs().RefreshCredentials(ctx, *cred.TokenPair)
		if err != nil {
			return Credentials{}, err
		}
		return Credentials{TokenPair: &pair}, nil
	case cred.AssertionPair != nil:
		pair, err := e.AssertionPairs().RefreshCredentials(ctx, *cred.AssertionPair)
		if err != nil {
			return Credentials{}, err
		}
		return Credentials{AssertionPair: &pair}, nil
	default:
		return Credentials{}, ErrCredentialsMalformed
	}
}

func decodeCredentialID(encoded string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(encoded)
}
