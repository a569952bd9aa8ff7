// Package history keeps a local SQLite ledger of assembly jobs so they can be
// listed and watched after the submitting process exits.
//
// The ledger mirrors what the API reported; it never decides job state. A job
// recorded as terminal is never updated again, which is what lets the CLI
// skip re-polling it. Schema changes bump schemaVersion in schema.go.
package history
