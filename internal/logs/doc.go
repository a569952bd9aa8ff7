// Package logs reads the client's log file for `ppp logs`.
//
// Tail keeps memory bounded with a ring buffer for "last N lines", filters by
// job id so one assembly job can be followed across runs, and in follow mode
// polls for appended lines until the caller's context ends.
package logs
