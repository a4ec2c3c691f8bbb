package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Manager signs and verifies access tokens through golang-jwt. Same wire
// format and claim layout as [Codec]; this is the vetted-library path.
type Manager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewManager applies the same key floor as [NewCodec].
func NewManager(secret []byte, issuer, audience string, ttl time.Duration) (*Manager, error) {
	if len(secret) < MinSecretBytes {
		return nil, fmt.Errorf("secret key must be at least %d bytes", MinSecretBytes)
	}
	if issuer == "" || audience == "" {
		return nil, errors.New("issuer and audience are required")
	}
	if ttl <= 0 {
		return nil, errors.New("invalid token TTL")
	}
	return &Manager{
		secret:   append([]byte(nil), secret...),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}, nil
}

// Encode signs the caller claims merged with iss/aud/iat/exp.
func (m *Manager) Encode(claims map[string]any) (string, error) {
	now := time.Now()
	merged := jwt.MapClaims{}
	for k, v := range claims {
		merged[k] = v
	}
	merged["iss"] = m.issuer
	merged["aud"] = m.audience
	merged["iat"] = now.Unix()
	merged["exp"] = now.Add(m.ttl).Unix()

	return jwt.NewWithClaims(jwt.SigningMethodHS256, merged).SignedString(m.secret)
}

// Validate reports whether the token verifies against the configured key,
// issuer, and audience with zero clock leeway.
func (m *Manager) Validate(tokenStr string) bool {
	if tokenStr == "" {
		return false
	}
	_, err := jwt.Parse(
		tokenStr,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
	)
	return err == nil
}
