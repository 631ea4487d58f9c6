// Package monitoring provides Prometheus metrics for the shell backend.
//
// Best-effort bulk operations (resize passes, z-order demotion) swallow
// per-item host errors; their failure counts surface here instead of
// being discarded silently.
package monitoring
