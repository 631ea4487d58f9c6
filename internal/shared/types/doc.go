// Package types provides shared data structures for the shell backend.
//
// This package defines core types used across all backend components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - Rect, Point, Size: Surface geometry
//   - LifecycleState: Mini-app load lifecycle
//   - MiniAppConfig: Per-instance mini-app configuration
//   - AgentResult, AgentAction: Agent invocation output
//
// Geometry is expressed in host length units. Rect coordinates are
// offsets from the primary window's origin; absolute positions are
// computed at show/resize time against the live primary position.
package types
