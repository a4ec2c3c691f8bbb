package flows

import (
	"context"
	"errors"
)

// AssertionFailureKind classifies counter-guard failures.
type AssertionFailureKind int

const (
	AssertionFailureNone AssertionFailureKind = iota
	AssertionFailureNotFound
	AssertionFailureMismatch
	AssertionFailureStore
)

// AssertionResult reports the outcome of a counter-guard operation.
type AssertionResult struct {
	Failure AssertionFailureKind
	Err     error
}

// AssertionDeps captures counter-guard dependencies.
type AssertionDeps struct {
	// LookupCounter returns the stored counter for a credential;
	// found=false when no record matches the identifier.
	LookupCounter func(ctx context.Context, credentialID []byte) (counter uint32, found bool, err error)
	// Advance atomically sets stored = presented+1 iff stored == presented.
	// Must return MismatchErr when the compare fails.
	Advance func(ctx context.Context, credentialID []byte, presented uint32) error
	// SetCounter unconditionally overwrites the stored counter.
	SetCounter func(ctx context.Context, credentialID []byte, counter uint32) error

	MismatchErr error
	NotFoundErr error
}

// RunValidateAssertion checks that a stored record exists whose counter
// equals the presented value exactly. Exact match by design: monotonicity
// was already enforced upstream by the assertion verification; this guard
// re-confirms state consistency.
func RunValidateAssertion(ctx context.Context, credentialID []byte, presented uint32, deps AssertionDeps) (bool, error) {
	counter, found, err := deps.LookupCounter(ctx, credentialID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return counter == presented, nil
}

// RunAdvanceAssertion advances the stored counter past the presented value.
// A clone replaying an old assertion presents a counter that no longer
// matches storage and fails here.
func RunAdvanceAssertion(ctx context.Context, credentialID []byte, presented uint32, deps AssertionDeps) AssertionResult {
	if err := deps.Advance(ctx, credentialID, presented); err != nil {
		switch {
		case deps.NotFoundErr != nil && errors.Is(err, deps.NotFoundErr):
			return AssertionResult{Failure: AssertionFailureNotFound, Err: err}
		case deps.MismatchErr != nil && errors.Is(err, deps.MismatchErr):
			return AssertionResult{Failure: AssertionFailureMismatch, Err: err}
		default:
			return AssertionResult{Failure: AssertionFailureStore, Err: err}
		}
	}
	return AssertionResult{Failure: AssertionFailureNone}
}

// RunResetAssertion resynchronizes the stored counter to zero on a fresh
// login after client-side drift.
func RunResetAssertion(ctx context.Context, credentialID []byte, deps AssertionDeps) AssertionResult {
	if err := deps.SetCounter(ctx, credentialID, 0); err != nil {
		switch {
		case deps.NotFoundErr != nil && errors.Is(err, deps.NotFoundErr):
			return AssertionResult{Failure: AssertionFailureNotFound, Err: err}
		default:
			return AssertionResult{Failure: AssertionFailureStore, Err: err}
		}
	}
	return AssertionResult{Failure: AssertionFailureNone}
}
