// Package rate implements the fixed-window request counters behind
// goGate's per-endpoint rate limiting.
//
// # Window semantics
//
// Each policy × identifier pair owns one [Entry]. The first counted hit
// after the previous window expired starts a fresh window of
// [Policy.Window]; hits inside the window increment the counter until
// [Entry.ResetAt] passes. A burst of up to twice MaxRequests across a
// window boundary is accepted.
//
// Keys default to "endpoint:identifier" unless the policy carries a
// KeyGenerator.
//
// # Backends
//
//   - [MemoryStore]: sharded in-process maps, swept periodically.
//   - [RedisStore]: one Lua round-trip per hit, expiry delegated to Redis.
//
// # What this package must NOT do
//
//   - Decide what happens for unconfigured endpoints beyond reporting it.
//   - Log or emit metrics (the engine owns observability).
package rate
