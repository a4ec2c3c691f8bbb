package goCred

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/MrEthical07/goCred/internal/audit"
	"github.com/MrEthical07/goCred/internal/flows"
	internalmetrics "github.com/MrEthical07/goCred/internal/metrics"
	"github.com/MrEthical07/goCred/internal/stores"
	"github.com/MrEthical07/goCred/token"
)

// Builder assembles an [Engine]. Builders are single-use: Build succeeds at
// most once per instance.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	store     CredentialStore
	auditSink AuditSink

	built bool
}

// New returns a builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis provides the redis client backing the pending-ceremony options
// store. Without it the engine falls back to the in-process variant.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore provides the credential store gateway. Required.
func (b *Builder) WithStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithAuditSink provides the sink receiving audit events. Audit dispatch
// still requires Config.Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithTokenBackend selects the access-token signing implementation.
func (b *Builder) WithTokenBackend(backend TokenBackend) *Builder {
	b.config.Token.Backend = backend
	return b
}

// Build validates the configuration, wires the flow dependencies, and
// returns a ready engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("credential store required")
	}

	// -------- TOKEN PIPELINE --------
	codec, err := token.NewCodec(cfg.Token.Secret, cfg.Token.Issuer, cfg.Token.Audience, cfg.Token.AccessTTL)
	if err != nil {
		return nil, err
	}

	var signer tokenSigner = codec
	if cfg.Token.Backend == BackendLibrary {
		manager, err := token.NewManager(cfg.Token.Secret, cfg.Token.Issuer, cfg.Token.Audience, cfg.Token.AccessTTL)
		if err != nil {
			return nil, err
		}
		signer = manager
	}

	// -------- CHALLENGE STORE --------
	var challenges ChallengeStore
	if b.redis != nil {
		challenges = stores.NewRedisChallengeStore(b.redis, cfg.Challenge.RedisPrefix, cfg.Challenge.TTL)
	} else {
		challenges = stores.NewMemoryChallengeStore(cfg.Challenge.TTL)
	}

	engine := &Engine{
		config: cfg,
		store:  b.store,
		signer: signer,
		codec:  codec,
	}
	engine.challenges = countingChallengeStore{inner: challenges, engine: engine}

	engine.history = NewHistoryRecorder(b.store)
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = internalmetrics.New(internalmetrics.Config{Enabled: cfg.Metrics.Enabled})

	// -------- FLOW WIRING --------
	engine.flows = flows.New(flows.Deps{
		Refresh: flows.RefreshDeps{
			LookupByRefreshToken: func(ctx context.Context, presented string) (*flows.UserRecord, error) {
				user, err := b.store.FindUserByRefreshToken(ctx, presented)
				if err != nil || user == nil {
					return nil, err
				}
				return &flows.UserRecord{
					Username:       user.Username,
					RefreshExpires: user.RefreshTokenExpires,
				}, nil
			},
			NewPair: engine.newPair,
			Rotate: func(ctx context.Context, presented string, next flows.Pair) error {
				_, err := b.store.RotateRefreshToken(ctx, presented, RefreshToken{
					Token:   next.RefreshValue,
					Created: next.Created,
					Expires: next.Expires,
				})
				return err
			},
			AppendEvent: func(ctx context.Context, username string) error {
				return engine.history.Record(ctx, username, userAgentFromContext(ctx), ReasonRefreshToken)
			},
			Now:           engine.now,
			SupersededErr: ErrRefreshInvalid,
		},
		Issue: flows.IssueDeps{
			LookupByName: func(ctx context.Context, username string) (*flows.UserRecord, error) {
				user, err := b.store.FindUserByName(ctx, username)
				if err != nil || user == nil {
					return nil, err
				}
				return &flows.UserRecord{
					Username:       user.Username,
					RefreshExpires: user.RefreshTokenExpires,
				}, nil
			},
			NewPair: engine.newPair,
			Persist: func(ctx context.Context, username string, pair flows.Pair) error {
				return b.store.SetActiveRefreshToken(ctx, username, RefreshToken{
					Token:   pair.RefreshValue,
					Created: pair.Created,
					Expires: pair.Expires,
				})
			},
			AppendEvent: func(ctx context.Context, username string) error {
				return engine.history.Record(ctx, username, userAgentFromContext(ctx), ReasonLogin)
			},
		},
		Assertion: flows.AssertionDeps{
			LookupCounter: func(ctx context.Context, credentialID []byte) (uint32, bool, error) {
				cred, err := b.store.FindAssertionCredential(ctx, credentialID)
				if err != nil {
					return 0, false, err
				}
				if cred == nil {
					return 0, false, nil
				}
				return cred.SignatureCounter, true, nil
			},
			Advance:     b.store.AdvanceAssertionCounter,
			SetCounter:  b.store.SetAssertionCounter,
			MismatchErr: ErrCounterMismatch,
			NotFoundErr: ErrCredentialNotFound,
		},
	})

	b.built = true

	return engine, nil
}
