package goCred

import (
	"context"
	"time"

	"github.com/MrEthical07/goCred/internal"
	internalaudit "github.com/MrEthical07/goCred/internal/audit"
	"github.com/MrEthical07/goCred/internal/flows"
	"github.com/MrEthical07/goCred/token"
)

// tokenSigner is the access-token pipeline contract satisfied by both the
// manual codec and the library-backed manager.
type tokenSigner interface {
	Encode(claims map[string]any) (string, error)
	Validate(tokenStr string) bool
}

// ChallengeStore keeps pending ceremony options between the begin and
// finish halves of a registration or assertion ceremony. Take consumes:
// options can be used at most once.
type ChallengeStore interface {
	Save(ctx context.Context, challengeID string, payload []byte) error
	Take(ctx context.Context, challengeID string) ([]byte, error)
}

// Engine is the credential lifecycle core. Instances are built once through
// [Builder.Build] and treated as immutable afterwards; all methods are safe
// for concurrent use.
type Engine struct {
	config     Config
	store      CredentialStore
	signer     tokenSigner
	codec      *token.Codec
	challenges ChallengeStore
	history    *HistoryRecorder
	flows      flows.Service
	audit      *internalaudit.Dispatcher
	metrics    *Metrics
}

// Close stops the audit dispatcher after draining queued events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Challenges exposes the pending-ceremony options store so that ceremony
// front ends share the engine's backing and TTL configuration.
func (e *Engine) Challenges() ChallengeStore {
	if e == nil {
		return nil
	}
	return e.challenges
}

// History exposes the refresh history recorder.
func (e *Engine) History() *HistoryRecorder {
	if e == nil {
		return nil
	}
	return e.history
}

// CreatePair issues a fresh token pair for a known user and persists the
// refresh value as the user's single active refresh credential. The caller
// has already verified the user's primary credentials; this method records
// the issuance with the login reason.
func (e *Engine) CreatePair(ctx context.Context, username string) (TokenPair, error) {
	if e == nil || !e.flows.Initialized() {
		return TokenPair{}, ErrEngineNotReady
	}

	result := e.flows.Issue(ctx, username)
	switch result.Failure {
	case flows.IssueFailureNone:
	case flows.IssueFailureUnknownUser:
		e.emitAudit(ctx, internalaudit.EventPairIssued, false, username, "", ReasonLogin.String(), ErrUserNotFound, nil)
		return TokenPair{}, ErrUserNotFound
	case flows.IssueFailureEvent:
		// The pair is already active; losing the history row is not worth
		// losing the credentials.
		e.emitAudit(ctx, internalaudit.EventPairIssued, true, result.Username, "", ReasonLogin.String(), result.Err, func() map[string]string {
			return map[string]string{"history": "append_failed"}
		})
		e.metricInc(MetricPairIssued)
		return pairFromFlow(result.Pair), nil
	default:
		e.emitAudit(ctx, internalaudit.EventPairIssued, false, result.Username, "", ReasonLogin.String(), result.Err, nil)
		return TokenPair{}, result.Err
	}

	e.metricInc(MetricPairIssued)
	e.emitAudit(ctx, internalaudit.EventPairIssued, true, result.Username, "", ReasonLogin.String(), nil, nil)
	return pairFromFlow(result.Pair), nil
}

// Refresh rotates a presented refresh token for a new pair. Every
// caller-correctable failure is the same [ErrRefreshInvalid]; only backend
// failures surface distinctly.
func (e *Engine) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	if e == nil || !e.flows.Initialized() {
		return TokenPair{}, ErrEngineNotReady
	}

	result := e.flows.Refresh(ctx, presented)
	switch result.Failure {
	case flows.RefreshFailureNone:
	case flows.RefreshFailureEmptyToken,
		flows.RefreshFailureUnknownToken,
		flows.RefreshFailureExpired:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, internalaudit.EventRefreshRejected, false, result.Username, "", ReasonRefreshToken.String(), ErrRefreshInvalid, nil)
		return TokenPair{}, ErrRefreshInvalid
	case flows.RefreshFailureSuperseded:
		// The presented value was already rotated away, either by a
		// concurrent legitimate refresh or by a replayed stolen token.
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricRefreshReuseDetected)
		e.emitAudit(ctx, internalaudit.EventRefreshRejected, false, result.Username, "", ReasonRefreshToken.String(), ErrRefreshInvalid, func() map[string]string {
			return map[string]string{"cause": "superseded"}
		})
		return TokenPair{}, ErrRefreshInvalid
	case flows.RefreshFailureEvent:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, internalaudit.EventPairRefreshed, true, result.Username, "", ReasonRefreshToken.String(), result.Err, func() map[string]string {
			return map[string]string{"history": "append_failed"}
		})
		return pairFromFlow(result.Pair), nil
	default:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, internalaudit.EventRefreshRejected, false, result.Username, "", ReasonRefreshToken.String(), result.Err, nil)
		return TokenPair{}, result.Err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, internalaudit.EventPairRefreshed, true, result.Username, "", ReasonRefreshToken.String(), nil, nil)
	return pairFromFlow(result.Pair), nil
}

// ValidateAccessToken reports whether an access token verifies against the
// configured key, issuer, audience, and expiry. Stateless; no storage read.
func (e *Engine) ValidateAccessToken(tokenStr string) bool {
	if e == nil || e.signer == nil {
		return false
	}
	ok := e.signer.Validate(tokenStr)
	if ok {
		e.metricInc(MetricAccessValidateSuccess)
	} else {
		e.metricInc(MetricAccessValidateFailure)
	}
	return ok
}

// AccessTokenClaim reads a single string claim from an access token without
// validating it. Inspection only: callers must never authenticate with the
// result.
func (e *Engine) AccessTokenClaim(tokenStr, name string) (string, bool) {
	if e == nil || e.codec == nil {
		return "", false
	}
	return e.codec.Claim(tokenStr, name)
}

// DecodeAccessToken returns the full unverified claim map of a token.
func (e *Engine) DecodeAccessToken(tokenStr string) (map[string]any, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}
	return e.codec.Decode(tokenStr)
}

// RefreshHistory returns all recorded refresh events for a user in storage
// order.
func (e *Engine) RefreshHistory(ctx context.Context, username string) ([]RefreshEvent, error) {
	if e == nil || e.history == nil {
		return nil, ErrEngineNotReady
	}
	return e.history.History(ctx, username)
}

// newPair builds a signed access token from the user's claims and a fresh
// opaque refresh value. No persistence side effect.
func (e *Engine) newPair(ctx context.Context, username string) (flows.Pair, error) {
	user, err := e.store.FindUserByName(ctx, username)
	if err != nil {
		return flows.Pair{}, err
	}
	if user == nil {
		return flows.Pair{}, ErrUserNotFound
	}

	claims := map[string]any{"unique_name": user.Username}
	for _, c := range user.Claims {
		if c.Name == "" {
			continue
		}
		claims[c.Name] = c.Value
	}

	access, err := e.signer.Encode(claims)
	if err != nil {
		return flows.Pair{}, err
	}

	value, err := internal.NewRefreshValue(e.config.Refresh.TokenBytes)
	if err != nil {
		return flows.Pair{}, err
	}

	now := time.Now().UTC()
	return flows.Pair{
		AccessToken:  access,
		RefreshValue: value,
		Created:      now,
		Expires:      now.Add(e.config.Refresh.TTL),
	}, nil
}

// countingChallengeStore layers the challenge metrics over the backing
// store without the store packages knowing about engine counters.
type countingChallengeStore struct {
	inner  ChallengeStore
	engine *Engine
}

func (c countingChallengeStore) Save(ctx context.Context, challengeID string, payload []byte) error {
	if err := c.inner.Save(ctx, challengeID, payload); err != nil {
		return err
	}
	c.engine.metricInc(MetricChallengeIssued)
	return nil
}

func (c countingChallengeStore) Take(ctx context.Context, challengeID string) ([]byte, error) {
	payload, err := c.inner.Take(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	c.engine.metricInc(MetricChallengeConsumed)
	return payload, nil
}

func (e *Engine) now() time.Time {
	return time.Now().UTC()
}

func pairFromFlow(p flows.Pair) TokenPair {
	return TokenPair{
		AccessToken: p.AccessToken,
		RefreshToken: RefreshToken{
			Token:   p.RefreshValue,
			Created: p.Created,
			Expires: p.Expires,
		},
	}
}
