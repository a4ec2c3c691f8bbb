package goCred

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HistoryRecorder appends and reads the immutable refresh history. Rows are
// append-only: nothing in this package mutates or deletes a prior event.
type HistoryRecorder struct {
	store CredentialStore
}

// NewHistoryRecorder wraps a credential store's event operations.
func NewHistoryRecorder(store CredentialStore) *HistoryRecorder {
	return &HistoryRecorder{store: store}
}

// Record appends one event with a generated ID and the current time.
func (r *HistoryRecorder) Record(ctx context.Context, username, userAgent string, reason IssueReason) error {
	if r == nil || r.store == nil {
		return ErrEngineNotReady
	}
	return r.store.AppendRefreshEvent(ctx, RefreshEvent{
		ID:        uuid.NewString(),
		Username:  username,
		UserAgent: userAgent,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
}

// History returns all events for a user in storage order.
func (r *HistoryRecorder) History(ctx context.Context, username string) ([]RefreshEvent, error) {
	if r == nil || r.store == nil {
		return nil, ErrEngineNotReady
	}
	return r.store.RefreshEvents(ctx, username)
}
