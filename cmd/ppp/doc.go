// Package main hosts the ppp CLI entrypoint and command graph.
//
// The Cobra command tree maps terminal invocations onto the Podcast Plus
// API client, the episode wizard, the local job history and the template
// editor. Configuration resolution, session loading and logger setup live in
// commandContext so subcommands only deal with flags and output.
//
// New behaviour belongs in the internal packages first; commands here stay
// thin wrappers that parse flags and render results.
package main
