package surface

import "errors"

var (
	// ErrNotFound indicates the surface id is unknown to the registry
	ErrNotFound = errors.New("surface not found")

	// ErrAlreadyExists indicates a duplicate create
	ErrAlreadyExists = errors.New("surface already exists")

	// ErrNotVisible indicates an activation target that is not visible
	ErrNotVisible = errors.New("surface not visible")

	// ErrHostUnavailable indicates the primary window is missing or its
	// position cannot be queried
	ErrHostUnavailable = errors.New("primary window unavailable")
)
