// Package services defines shared utilities consumed by the wizard, the API
// client, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp assembly job IDs, wizard step names, and
//     correlation identifiers for logging and request tracing.
//   - Structured error markers plus the Wrap helper so validation, upload,
//     submission, job, and polling-transport failures can be told apart with
//     errors.Is regardless of how deeply they are wrapped.
//
// Use these helpers when wiring new client logic so error reporting and
// observability stay uniform across commands.
package services
