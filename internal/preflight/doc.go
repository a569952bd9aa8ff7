// Package preflight provides readiness checks for the API, the stored
// session, and the local directories ppp writes to.
//
// The CLI "ppp doctor" command runs RunAll and renders the results. Checks
// for disabled features are skipped.
package preflight
