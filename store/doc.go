// Package store provides the [goCred.CredentialStore] implementations.
//
// [Redis] keeps users, assertion credentials, and refresh history in redis,
// with Lua compare-and-swap scripts for the two read-modify-write
// operations (refresh rotation, counter advancement) so that concurrent
// attempts with the same stale credential resolve to exactly one success.
//
// [Memory] is the in-process double used by tests. Same contract, one
// mutex instead of Lua.
package store
