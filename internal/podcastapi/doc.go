// Package podcastapi is the HTTP client for the Podcast Plus backend.
//
// Every request carries the session's bearer token and an X-Request-ID.
// A 401 response clears the session so callers fall back to login.
package podcastapi
