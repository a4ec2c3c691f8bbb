package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinSecretBytes is the minimum HMAC key length. Shorter keys are rejected
// at construction; this is an entropy floor, not a tunable.
const MinSecretBytes = 128

// Codec is the from-scratch signed-token pipeline. It carries no mutable
// state and is safe for concurrent use.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewCodec validates the signing key and returns a ready codec.
func NewCodec(secret []byte, issuer, audience string, ttl time.Duration) (*Codec, error) {
	if len(secret) < MinSecretBytes {
		return nil, fmt.Errorf("secret key must be at least %d bytes", MinSecretBytes)
	}
	if issuer == "" || audience == "" {
		return nil, errors.New("issuer and audience are required")
	}
	if ttl <= 0 {
		return nil, errors.New("invalid token TTL")
	}
	return &Codec{
		secret:   append([]byte(nil), secret...),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}, nil
}

// Encode merges the caller claims with the mandatory iss/aud/iat/exp fields
// and returns the signed token. Deterministic for identical inputs and
// timestamp; no side effects.
func (c *Codec) Encode(claims map[string]any) (string, error) {
	header := map[string]any{
		"alg": "HS256",
		"typ": "JWT",
	}

	now := time.Now().Unix()
	merged := make(map[string]any, len(claims)+4)
	for k, v := range claims {
		merged[k] = v
	}
	merged["iss"] = c.issuer
	merged["aud"] = c.audience
	merged["iat"] = now
	merged["exp"] = now + int64(c.ttl/time.Second)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(merged)
	if err != nil {
		return "", err
	}

	encodedHeader := base64.RawURLEncoding.EncodeToString(headerJSON)
	encodedPayload := base64.RawURLEncoding.EncodeToString(payloadJSON)
	signature := c.sign(encodedHeader, encodedPayload)

	return encodedHeader + "." + encodedPayload + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}

// Decode returns the payload claim map without checking the signature or
// expiry. Inspection only: callers must never authenticate with the result.
func (c *Codec) Decode(tokenStr string) (map[string]any, error) {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return nil, errors.New("invalid token format")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, err
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Claim reads a single string claim from an untrusted token.
func (c *Codec) Claim(tokenStr, name string) (string, bool) {
	claims, err := c.Decode(tokenStr)
	if err != nil {
		return "", false
	}
	v, ok := claims[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Validate reports whether the token carries a correct signature, has not
// expired, and names the configured issuer and audience. It never returns
// an error: every failure, whichever check tripped, is the same false.
func (c *Codec) Validate(tokenStr string) bool {
	if tokenStr == "" {
		return false
	}
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return false
	}

	presented, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	// Full-length comparison over the recomputed HMAC, in constant time.
	if !hmac.Equal(c.sign(parts[0], parts[1]), presented) {
		return false
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return false
	}

	exp, ok := claimInt64(claims, "exp")
	if !ok {
		return false
	}
	if time.Now().Unix() > exp {
		return false
	}

	if iss, _ := claims["iss"].(string); iss != c.issuer {
		return false
	}
	if aud, _ := claims["aud"].(string); aud != c.audience {
		return false
	}
	return true
}

func (c *Codec) sign(encodedHeader, encodedPayload string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encodedHeader + "." + encodedPayload))
	return mac.Sum(nil)
}

func claimInt64(claims map[string]any, name string) (int64, bool) {
	v, ok := claims[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
