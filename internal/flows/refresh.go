package flows

import (
	"context"
	"errors"
	"time"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureEmptyToken
	RefreshFailureUnknownToken
	RefreshFailureExpired
	RefreshFailureSuperseded
	RefreshFailureIssue
	RefreshFailureStore
	RefreshFailureEvent
)

// UserRecord is the slice of the user model the refresh flow needs.
type UserRecord struct {
	Username       string
	RefreshExpires time.Time
}

// Pair carries a freshly issued access/refresh pair before persistence.
type Pair struct {
	AccessToken  string
	RefreshValue string
	Created      time.Time
	Expires      time.Time
}

// RefreshResult carries either the rotated pair or failure metadata.
type RefreshResult struct {
	Failure  RefreshFailureKind
	Err      error
	Username string
	Pair     Pair
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	// LookupByRefreshToken resolves the user whose active refresh value
	// equals the presented token; (nil, nil) when none matches.
	LookupByRefreshToken func(ctx context.Context, token string) (*UserRecord, error)
	// NewPair issues a fresh access/refresh pair for the user. No
	// persistence side effect.
	NewPair func(ctx context.Context, username string) (Pair, error)
	// Rotate atomically replaces the active refresh value iff it still
	// equals presented. Must return SupersededErr when the compare fails.
	Rotate func(ctx context.Context, presented string, next Pair) error
	// AppendEvent records the rotation in the refresh history.
	AppendEvent func(ctx context.Context, username string) error

	Now           func() time.Time
	SupersededErr error
}

// RunRefresh executes the rotate-with-replay-detection state machine. Each
// step is a hard failure point; no intermediate state leaves two refresh
// values valid for one user.
func RunRefresh(ctx context.Context, presented string, deps RefreshDeps) RefreshResult {
	if presented == "" {
		return RefreshResult{Failure: RefreshFailureEmptyToken}
	}

	user, err := deps.LookupByRefreshToken(ctx, presented)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureStore, Err: err}
	}
	if user == nil {
		// Already rotated away or never issued. The two are deliberately
		// indistinguishable.
		return RefreshResult{Failure: RefreshFailureUnknownToken}
	}

	if !user.RefreshExpires.After(deps.Now()) {
		return RefreshResult{
			Failure:  RefreshFailureExpired,
			Username: user.Username,
		}
	}

	pair, err := deps.NewPair(ctx, user.Username)
	if err != nil {
		return RefreshResult{
			Failure:  RefreshFailureIssue,
			Err:      err,
			Username: user.Username,
		}
	}

	if err := deps.Rotate(ctx, presented, pair); err != nil {
		if deps.SupersededErr != nil && errors.Is(err, deps.SupersededErr) {
			// Lost the race against a concurrent rotation using the same
			// stale value. Exactly one attempt commits.
			return RefreshResult{
				Failure:  RefreshFailureSuperseded,
				Err:      err,
				Username: user.Username,
			}
		}
		return RefreshResult{
			Failure:  RefreshFailureStore,
			Err:      err,
			Username: user.Username,
		}
	}

	if err := deps.AppendEvent(ctx, user.Username); err != nil {
		return RefreshResult{
			Failure:  RefreshFailureEvent,
			Err:      err,
			Username: user.Username,
			Pair:     pair,
		}
	}

	return RefreshResult{
		Failure:  RefreshFailureNone,
		Username: user.Username,
		Pair:     pair,
	}
}
