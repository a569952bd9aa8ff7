// Package notifications pushes assembly outcomes to ntfy.
//
// The topic URL comes from config.toml; with no topic the service is a no-op.
// Completion and failure messages can be switched off individually.
package notifications
