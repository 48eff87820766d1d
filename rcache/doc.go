// Package rcache provides an interval-refreshed record cache for
// high-frequency concurrent reads.
//
// A Runner owns a background loop that periodically fetches raw records
// from one or more configured sources, normalizes and deduplicates them
// into canonical form, and publishes the result as an immutable snapshot.
// Readers load the snapshot through an atomic pointer, so reads never
// contend with a refresh in progress and never observe a partially
// updated batch.
//
// ## Single-flight refresh
//
// At most one fetch cycle executes at a time. The regular interval tick
// and out-of-band RunNow triggers race for the in-flight flag; whichever
// acquires it runs and the other is dropped, not queued. Snapshot
// replacements are therefore totally ordered.
//
// ## Bounded fetch
//
// Each cycle runs its sources on a worker goroutine and waits up to the
// configured fetch timeout. A timed-out worker is abandoned rather than
// killed: its context is canceled, the cycle records a timeout error, and
// any result the straggler later produces is discarded. Keeping sources
// boundable is the caller's responsibility.
//
// ## Failure keeps prior data
//
// A failed cycle, whether the source errored, the fetch timed out, or the
// records failed schema validation, leaves the published snapshot
// untouched and records a "kind: message" diagnostic in the runner
// status. Stale-but-valid data is preferred over no data.
package rcache
