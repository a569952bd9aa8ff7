// Package config loads, normalizes, and validates Podcast Plus client
// configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PODCASTPLUS_API_URL and PODCASTPLUS_TOKEN. The Config type centralizes every
// knob the CLI and the wizard need so the API endpoint, polling cadence, and
// local state directory are discovered in one pass.
package config
