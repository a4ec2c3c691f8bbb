package goCred

import internalmetrics "github.com/MrEthical07/goCred/internal/metrics"

// MetricID identifies a single engine counter.
type MetricID = internalmetrics.MetricID

const (
	// MetricPairIssued is an exported constant or variable used by the credential engine.
	MetricPairIssued = internalmetrics.MetricPairIssued
	// MetricAccessValidateSuccess is an exported constant or variable used by the credential engine.
	MetricAccessValidateSuccess = internalmetrics.MetricAccessValidateSuccess
	// MetricAccessValidateFailure is an exported constant or variable used by the credential engine.
	MetricAccessValidateFailure = internalmetrics.MetricAccessValidateFailure
	// MetricRefreshSuccess is an exported constant or variable used by the credential engine.
	MetricRefreshSuccess = internalmetrics.MetricRefreshSuccess
	// MetricRefreshFailure is an exported constant or variable used by the credential engine.
	MetricRefreshFailure = internalmetrics.MetricRefreshFailure
	// MetricRefreshReuseDetected counts refresh attempts with a superseded token.
	MetricRefreshReuseDetected = internalmetrics.MetricRefreshReuseDetected
	// MetricAssertionValidated is an exported constant or variable used by the credential engine.
	MetricAssertionValidated = internalmetrics.MetricAssertionValidated
	// MetricCounterMismatch counts exact-match failures on the signature counter.
	MetricCounterMismatch = internalmetrics.MetricCounterMismatch
	// MetricCounterAdvanced is an exported constant or variable used by the credential engine.
	MetricCounterAdvanced = internalmetrics.MetricCounterAdvanced
	// MetricCounterReset is an exported constant or variable used by the credential engine.
	MetricCounterReset = internalmetrics.MetricCounterReset
	// MetricChallengeIssued is an exported constant or variable used by the credential engine.
	MetricChallengeIssued = internalmetrics.MetricChallengeIssued
	// MetricChallengeConsumed is an exported constant or variable used by the credential engine.
	MetricChallengeConsumed = internalmetrics.MetricChallengeConsumed
)
