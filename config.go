package goCred

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// TokenBackend selects the access-token signing implementation.
type TokenBackend string

const (
	// BackendManual uses the from-scratch HMAC-SHA256 codec.
	BackendManual TokenBackend = "manual"
	// BackendLibrary uses golang-jwt. Reference behavior; the manual codec
	// must stay wire-compatible with it.
	BackendLibrary TokenBackend = "library"
)

// Config defines the engine configuration. Instances are validated at
// [Builder.Build] and treated as immutable afterwards.
type Config struct {
	Token     TokenConfig
	Refresh   RefreshConfig
	Challenge ChallengeConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures access-token issuance and verification.
type TokenConfig struct {
	// Secret is the HMAC signing key. At least 128 bytes; shorter keys are
	// rejected at build time. This is a minimum-entropy floor, not
	// negotiable at runtime.
	Secret   []byte
	Issuer   string
	Audience string
	// AccessTTL is minutes-scale by design; access tokens are stateless and
	// cannot be revoked before expiry.
	AccessTTL time.Duration
	Backend   TokenBackend
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig configures opaque refresh-token issuance.
type RefreshConfig struct {
	// TTL is days-scale.
	TTL time.Duration
	// TokenBytes is the entropy of a generated refresh value.
	TokenBytes int
}

/*
====================================
CHALLENGE CONFIG
====================================
*/

// ChallengeConfig configures the pending-ceremony options cache.
type ChallengeConfig struct {
	RedisPrefix string
	// TTL bounds how long issued ceremony options stay consumable.
	TTL time.Duration
}

// AuditConfig configures asynchronous audit dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

const minSecretBytes = 128

// DefaultConfig returns the baseline configuration. The token secret,
// issuer, and audience still have to be supplied before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL: 5 * time.Minute,
			Backend:   BackendManual,
		},
		Refresh: RefreshConfig{
			TTL:        7 * 24 * time.Hour,
			TokenBytes: 256,
		},
		Challenge: ChallengeConfig{
			RedisPrefix: "gc:chal",
			TTL:         2 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = append([]byte(nil), cfg.Token.Secret...)
	return out
}

func validateConfig(cfg Config) error {
	if len(cfg.Token.Secret) < minSecretBytes {
		return fmt.Errorf("token secret must be at least %d bytes", minSecretBytes)
	}
	if cfg.Token.Issuer == "" {
		return errors.New("token issuer is required")
	}
	if cfg.Token.Audience == "" {
		return errors.New("token audience is required")
	}
	if cfg.Token.AccessTTL <= 0 {
		return errors.New("invalid access TTL configuration")
	}
	switch cfg.Token.Backend {
	case BackendManual, BackendLibrary:
	default:
		return fmt.Errorf("unsupported token backend %q", cfg.Token.Backend)
	}
	if cfg.Refresh.TTL <= 0 {
		return errors.New("invalid refresh TTL configuration")
	}
	if cfg.Refresh.TokenBytes < 256 {
		return errors.New("refresh token entropy below 256 bytes")
	}
	if cfg.Challenge.TTL <= 0 {
		return errors.New("invalid challenge TTL configuration")
	}
	return nil
}

// ConfigFromValues builds a Config from the raw configuration surface:
// signing secret, issuer, audience, access TTL in minutes, and refresh TTL
// in days. Non-numeric TTL values are a construction error; the service
// must refuse to start rather than run with defaults it was not given.
func ConfigFromValues(secret, issuer, audience, accessMinutes, refreshDays string) (Config, error) {
	cfg := defaultConfig()
	cfg.Token.Secret = []byte(secret)
	cfg.Token.Issuer = issuer
	cfg.Token.Audience = audience

	minutes, err := strconv.Atoi(accessMinutes)
	if err != nil {
		return Config{}, fmt.Errorf("access token expiration minutes must be an integer: %q", accessMinutes)
	}
	cfg.Token.AccessTTL = time.Duration(minutes) * time.Minute

	days, err := strconv.Atoi(refreshDays)
	if err != nil {
		return Config{}, fmt.Errorf("refresh token expiration days must be an integer: %q", refreshDays)
	}
	cfg.Refresh.TTL = time.Duration(days) * 24 * time.Hour

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
