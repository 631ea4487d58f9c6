package host

import "github.com/metheus/shell/internal/shared/types"

// PrimaryID is the well-known key of the primary application window.
const PrimaryID = "main"

// CreateOptions controls how a surface is created
type CreateOptions struct {
	Title       string
	Visible     bool
	Decorations bool
	AlwaysOnTop bool
}

// Host provides primitive operations on platform surfaces keyed by string id
type Host interface {
	// Create builds a new surface bound to the given locator. The surface
	// id must be unused; concrete hosts return an error otherwise.
	Create(id, locator string, opts CreateOptions) (Handle, error)

	// Lookup returns the handle for an existing surface, if any.
	Lookup(id string) (Handle, bool)
}

// Handle exposes operations on one live surface
type Handle interface {
	Show() error
	Hide() error
	Close() error
	Focus() error

	SetPosition(p types.Point) error
	SetSize(s types.Size) error
	SetAlwaysOnBottom(onBottom bool) error
	SetVisibleOnAllWorkspaces(visible bool) error

	// Position reports the surface's current absolute position.
	Position() (types.Point, error)

	// EvaluateScript runs JavaScript inside the surface's content.
	EvaluateScript(source string) error
}

// Primary resolves the primary window handle.
func Primary(h Host) (Handle, bool) {
	return h.Lookup(PrimaryID)
}
