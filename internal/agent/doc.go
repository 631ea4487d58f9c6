// Package agent executes short-lived JavaScript agents in isolated,
// ephemeral script contexts.
//
// An agent is a script that defines a run(input) entry point. Every
// invocation gets a fresh context, so no globals, timers, or other
// state can leak between runs. A single execution gate serializes
// context lifetimes process-wide: at most one script context is ever
// live, bounding the embedded engine's peak resource usage.
//
// Loaded agent source is cached by id; the cache has no automatic
// eviction, but entries carry a last-used timestamp an external sweeper
// can consult.
package agent
