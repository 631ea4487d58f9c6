// Package host defines the contract between the shell core and the
// platform windowing layer.
//
// The core never talks to a concrete windowing toolkit. Registries
// consume the Host and Handle interfaces; the desktop embedder supplies
// the real implementation at startup. Fake provides an in-memory
// recording implementation for tests.
package host
