// Package events broadcasts shell lifecycle events to UI clients over
// WebSocket.
//
// Registries and the agent runner publish fire-and-forget events
// (surface shown/hidden, mini-app state changes, agent completions,
// best-effort failure diagnostics). Slow consumers are dropped rather
// than allowed to block publishers.
package events
