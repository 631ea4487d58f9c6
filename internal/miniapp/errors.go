package miniapp

import "errors"

var (
	// ErrNotRegistered indicates no configuration exists for the id
	ErrNotRegistered = errors.New("mini-app not registered")

	// ErrAlreadyLoaded indicates a load while loaded or visible
	ErrAlreadyLoaded = errors.New("mini-app already loaded")

	// ErrNotReady indicates a show before the mini-app finished loading
	ErrNotReady = errors.New("mini-app not ready")

	// ErrNotVisible indicates a hide or activation while not visible
	ErrNotVisible = errors.New("mini-app not visible")

	// ErrNotLoaded indicates an unload with no live surface
	ErrNotLoaded = errors.New("mini-app not loaded")

	// ErrFaulted wraps the message stored by a failed load; unload is
	// the only operation that clears it
	ErrFaulted = errors.New("mini-app in error state")
)
