// Package stores contains the time-bounded key-value stores backing
// multi-step ceremony handshakes. Pending options are saved under a random
// challenge ID, live for a bounded TTL, and are evicted on consumption so
// that a challenge can be answered at most once.
package stores
