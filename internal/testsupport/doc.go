// Package testsupport builds throwaway configs, ledgers and media files for
// tests across the module.
package testsupport
