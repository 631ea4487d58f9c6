// Package surface manages embedded web surfaces layered above the
// primary window.
//
// The Manager owns per-surface bookkeeping (existence, visibility,
// last-known bounds) and drives the platform host. Bookkeeping is
// guarded by a mutex that is never held across host calls, so a host
// callback that re-enters the registry cannot deadlock.
//
// Activation (z-order) and bounds projection live here too and are
// shared with the mini-app registry.
package surface
