// Package flows contains the credential flow logic as pure functions over
// explicit dependency structs. The root engine wires the deps once at build
// time; flow functions never import the root package and never touch a
// backing store except through the injected functions.
//
// Each flow returns a result carrying a failure kind so the root package can
// map internal causes onto its uniform client-facing sentinels without the
// flows knowing about them.
package flows
