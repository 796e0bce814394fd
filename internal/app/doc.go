// Package app contains application services that orchestrate use cases.
// This is the application layer: it coordinates domain logic and
// infrastructure through ports.
//
// QuoteBook owns the quote collection and every mutation of it. SyncEngine
// reconciles that collection with the remote quote source, on a timer and
// on demand, one cycle at a time.
//
// What does NOT belong here:
//   - HTTP or terminal specifics (that's adapters)
//   - Storage encodings beyond the JSON snapshot (that's storage adapters)
//   - Reconcile rules (that's the domain layer)
package app
