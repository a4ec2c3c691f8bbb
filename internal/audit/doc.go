// Package audit defines the engine's audit event model, delivery sinks, and
// the asynchronous dispatcher that decouples credential flows from sink
// latency.
package audit
