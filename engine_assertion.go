package goCred

import (
	"context"
	"encoding/base64"

	internalaudit "github.com/MrEthical07/goCred/internal/audit"
	"github.com/MrEthical07/goCred/internal/flows"
)

// RegisterAssertionCredential persists a newly registered public-key
// credential with its counter as reported by the authenticator.
func (e *Engine) RegisterAssertionCredential(ctx context.Context, cred *AssertionCredential) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if err := e.store.SaveAssertionCredential(ctx, cred); err != nil {
		e.emitAudit(ctx, internalaudit.EventCredentialAdded, false, "", encodeCredentialID(cred.CredentialID), "", err, nil)
		return err
	}
	e.emitAudit(ctx, internalaudit.EventCredentialAdded, true, "", encodeCredentialID(cred.CredentialID), "", nil, nil)
	return nil
}

// ValidateAssertion reports whether a stored credential exists whose
// signature counter equals the presented value exactly. No mutation.
func (e *Engine) ValidateAssertion(ctx context.Context, credentialID []byte, presented uint32) (bool, error) {
	if e == nil || !e.flows.Initialized() {
		return false, ErrEngineNotReady
	}
	ok, err := e.flows.ValidateAssertion(ctx, credentialID, presented)
	if err != nil {
		return false, err
	}
	if ok {
		e.metricInc(MetricAssertionValidated)
	} else {
		e.metricInc(MetricCounterMismatch)
		e.emitAudit(ctx, internalaudit.EventAssertionRejected, false, "", encodeCredentialID(credentialID), "", ErrCounterMismatch, nil)
	}
	return ok, nil
}

// AdvanceAssertion moves the stored counter past the presented value,
// failing with [ErrCounterMismatch] when storage has already moved on. A
// replayed assertion loses that race by construction.
func (e *Engine) AdvanceAssertion(ctx context.Context, credentialID []byte, presented uint32) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	result := e.flows.AdvanceAssertion(ctx, credentialID, presented)
	switch result.Failure {
	case flows.AssertionFailureNone:
	case flows.AssertionFailureNotFound:
		e.emitAudit(ctx, internalaudit.EventAssertionRejected, false, "", encodeCredentialID(credentialID), "", ErrCredentialNotFound, nil)
		return ErrCredentialNotFound
	case flows.AssertionFailureMismatch:
		e.metricInc(MetricCounterMismatch)
		e.emitAudit(ctx, internalaudit.EventAssertionRejected, false, "", encodeCredentialID(credentialID), "", ErrCounterMismatch, nil)
		return ErrCounterMismatch
	default:
		e.emitAudit(ctx, internalaudit.EventAssertionRejected, false, "", encodeCredentialID(credentialID), "", result.Err, nil)
		return result.Err
	}

	e.metricInc(MetricCounterAdvanced)
	e.emitAudit(ctx, internalaudit.EventAssertionAdvanced, true, "", encodeCredentialID(credentialID), "", nil, nil)
	return nil
}

// ResetAssertionCounter resynchronizes the stored counter to zero. Called
// on a fresh login after client-side counter drift.
func (e *Engine) ResetAssertionCounter(ctx context.Context, credentialID []byte) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	result := e.flows.ResetAssertion(ctx, credentialID)
	switch result.Failure {
	case flows.AssertionFailureNone:
	case flows.AssertionFailureNotFound:
		return ErrCredentialNotFound
	default:
		return result.Err
	}

	e.metricInc(MetricCounterReset)
	e.emitAudit(ctx, internalaudit.EventCounterReset, true, "", encodeCredentialID(credentialID), "", nil, nil)
	return nil
}

func encodeCredentialID(credentialID []byte) string {
	return base64.RawURLEncoding.EncodeToString(credentialID)
}
