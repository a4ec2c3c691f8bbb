// Package fido runs WebAuthn registration and login ceremonies on top of
// the credential engine.
//
// The two-step ceremonies (begin issues options, finish verifies the
// client's response) keep their pending state in the engine's challenge
// store, so options are time-bounded and consumable exactly once. Counter
// state lands in the engine's assertion guard after each verified login.
package fido
