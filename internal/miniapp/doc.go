// Package miniapp manages richer embedded surfaces with a multi-stage
// load lifecycle and per-instance configuration.
//
// Lifecycle: not_loaded → loading → loaded ⇄ visible, with a terminal
// error state reachable from loading only. Unload is the single exit
// from the error state. Configurations are registered up front (directly
// or from YAML manifests) and are read-only afterwards.
package miniapp
