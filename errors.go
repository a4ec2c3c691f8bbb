package goCred

import (
	"errors"

	"github.com/MrEthical07/goCred/internal/stores"
)

var (
	// ErrRefreshInvalid is returned for every caller-correctable refresh
	// failure: empty token, unknown value, already rotated, or expired.
	// The causes are deliberately indistinguishable.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrTokenInvalid covers malformed, tampered, or expired access tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrCounterMismatch is returned when a presented signature counter does
	// not exactly match the stored one.
	ErrCounterMismatch = errors.New("signature counter mismatch")
	// ErrCredentialNotFound is returned when no stored assertion credential
	// matches the presented credential ID.
	ErrCredentialNotFound = errors.New("assertion credential not found")
	// ErrUserNotFound is an exported constant or variable used by the credential engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrStoreUnavailable wraps gateway lookup/write failures. These are
	// never converted into a uniform "not valid" result.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrChallengeNotFound is returned when a ceremony references pending
	// options that were never issued or were already consumed.
	ErrChallengeNotFound = stores.ErrChallengeNotFound
	// ErrEngineNotReady is an exported constant or variable used by the credential engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrCredentialsMalformed is returned when a credentials value does not
	// populate exactly one kind.
	ErrCredentialsMalformed = errors.New("exactly one credential kind must be set")
)
