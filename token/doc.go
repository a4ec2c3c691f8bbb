// Package token builds and verifies the compact signed-token wire format:
// three dot-separated base64url segments (header JSON, payload JSON, and an
// HMAC-SHA256 signature over "header.payload").
//
// Two implementations share the format. [Manager] signs and verifies through
// golang-jwt and is the reference behavior. [Codec] is the from-scratch
// pipeline kept for environments where the library cannot be used; it must
// stay wire-compatible with [Manager].
package token
