// Package session holds the bearer token used for authenticated API calls.
//
// A Session is created once per process, loaded from its Store at startup,
// set on login, and cleared on logout or whenever the API answers 401.
// Subscribers are told about every change so long-lived views can react.
package session
