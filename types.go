package goCred

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/MrEthical07/goCred/internal/audit"
	internalmetrics "github.com/MrEthical07/goCred/internal/metrics"
)

// IssueReason records why a refresh token was written to storage.
type IssueReason uint8

const (
	// ReasonLogin marks an initial issuance after credential verification.
	ReasonLogin IssueReason = iota
	// ReasonRefreshToken marks a rotation of an existing refresh token.
	ReasonRefreshToken
	// ReasonNotActualised marks a write whose origin was not recorded.
	ReasonNotActualised
)

func (r IssueReason) String() string {
	switch r {
	case ReasonLogin:
		return "login"
	case ReasonRefreshToken:
		return "refresh_token"
	default:
		return "not_actualised"
	}
}

// Claim is a named claim attached to a user. Claims are consumed read-only
// when building an access token's claim set.
type Claim struct {
	Name  string
	Type  string
	Value string
}

// User is the account record exposed by [CredentialStore]. The password
// hash and salt are opaque to this package. A user carries at most one
// active refresh token; issuing a new one overwrites the old.
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	PasswordSalt []byte
	Claims       []Claim

	RefreshToken        string
	RefreshTokenCreated time.Time
	RefreshTokenExpires time.Time
}

// RefreshToken is an opaque random credential with issuance metadata.
// The value is persisted as the user's single active refresh credential;
// the access token it was paired with never is.
type RefreshToken struct {
	Token   string
	Created time.Time
	Expires time.Time
}

// TokenPair couples a short-lived signed access token with a rotating
// refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken RefreshToken
}

// AssertionPair identifies a stored public-key credential and the signature
// counter the client presented with its latest assertion.
type AssertionPair struct {
	CredentialID string
	Counter      uint32
}

// AssertionCredential is a stored public-key credential record.
//
// The signature counter starts at 0 at registration and is non-decreasing
// in storage except for an explicit reset on fresh login.
type AssertionCredential struct {
	CredentialID     []byte
	UserHandle       []byte
	PublicKey        []byte
	AttestationType  string
	SignatureCounter uint32
	RegisteredAt     time.Time
}

// RefreshEvent is an immutable audit record of a credential issuance or
// rotation. Events are append-only; this package never mutates or deletes
// prior events.
type RefreshEvent struct {
	ID        string
	Username  string
	UserAgent string
	Reason    IssueReason
	Timestamp time.Time
}

// Credentials is the request-level sum over credential kinds. Exactly one
// field is populated in a well-formed request; [Engine.ValidateCredentials]
// and [Engine.RefreshCredentials] select the handler by which field is set,
// never by a type tag.
type Credentials struct {
	TokenPair     *TokenPair
	AssertionPair *AssertionPair
}

// CredentialStore is the persistence gateway consumed by the engine. The
// real implementation lives in [github.com/MrEthical07/goCred/store]; tests
// use the in-memory double from the same package.
//
// Implementations must make each read-modify-write atomic at single-record
// granularity: RotateRefreshToken and AdvanceAssertionCounter are
// compare-and-swap operations, so two concurrent attempts presenting the
// same stale credential cannot both succeed.
type CredentialStore interface {
	// FindUserByName returns the user with the given username, or
	// (nil, nil) when no such user exists.
	FindUserByName(ctx context.Context, username string) (*User, error)

	// FindUserByRefreshToken returns the user whose currently-active
	// refresh value equals token, or (nil, nil) when none matches.
	FindUserByRefreshToken(ctx context.Context, token string) (*User, error)

	// SetActiveRefreshToken overwrites the user's active refresh value and
	// its issuance metadata.
	SetActiveRefreshToken(ctx context.Context, username string, token RefreshToken) error

	// RotateRefreshToken atomically replaces the user's active refresh
	// value with next iff it still equals presented. It returns
	// ErrRefreshInvalid when presented no longer matches (already rotated
	// or never existed).
	RotateRefreshToken(ctx context.Context, presented string, next RefreshToken) (*User, error)

	// FindAssertionCredential returns the stored credential record with the
	// given identifier, or (nil, nil) when none exists.
	FindAssertionCredential(ctx context.Context, credentialID []byte) (*AssertionCredential, error)

	// SaveAssertionCredential persists a newly registered credential.
	SaveAssertionCredential(ctx context.Context, cred *AssertionCredential) error

	// SetAssertionCounter unconditionally sets the stored counter.
	SetAssertionCounter(ctx context.Context, credentialID []byte, counter uint32) error

	// AdvanceAssertionCounter atomically sets the stored counter to
	// presented+1 iff it currently equals presented. It returns
	// ErrCounterMismatch otherwise.
	AdvanceAssertionCounter(ctx context.Context, credentialID []byte, presented uint32) error

	// AppendRefreshEvent appends one immutable audit row.
	AppendRefreshEvent(ctx context.Context, event RefreshEvent) error

	// RefreshEvents returns all events for a user in storage order.
	RefreshEvents(ctx context.Context, username string) ([]RefreshEvent, error)
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Metrics holds the engine's atomic counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot = internalmetrics.Snapshot
