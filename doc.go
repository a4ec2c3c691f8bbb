// Package goCred issues, validates, and rotates end-user authentication
// credentials behind one uniform validate/refresh contract. It covers two
// credential schemes: signed token pairs and public-key (WebAuthn)
// assertion credentials.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goCred is the public surface. It exposes [Engine], [Builder], [Config], the
// [CredentialStore] gateway contract, and value types (TokenPair,
// AssertionPair, RefreshEvent, etc.). Flow orchestration, audit dispatch, and
// challenge caching live under internal/ and are never exported.
//
// Persistence is always behind the [CredentialStore] interface. The package
// ships a redis-backed implementation ([github.com/MrEthical07/goCred/store])
// and an in-memory double for tests; the engine itself never touches a
// backing store directly.
//
// # What this package must NOT do
//
//   - Expose redis clients, internal stores, or encoding details in its
//     public API.
//   - Retry or mask a store failure during rotation: rotation either commits
//     the new refresh value or leaves the old one as the sole valid one.
//   - Distinguish failure causes in client-facing results. Invalid signature,
//     expired token, unknown refresh value, and counter mismatch all surface
//     as the same uniform outcome.
//
// # Credential schemes
//
// Token pairs couple a short-lived stateless access token with an opaque
// rotating refresh token. Refresh rotation is the single replay defense: a
// superseded refresh value no longer matches any user's active value and is
// rejected.
//
// Assertion pairs carry a credential ID and a signature counter. The
// cryptographic assertion check itself is delegated to the FIDO2 library
// (see [github.com/MrEthical07/goCred/fido]); this package manages the
// monotonic counter state around it.
package goCred
