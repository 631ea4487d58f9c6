package surface

import (
	"fmt"

	"github.com/metheus/shell/internal/host"
	"github.com/metheus/shell/internal/shared/types"
)

// Project translates surface-relative bounds into an absolute host
// position against the given primary-window origin. Width and height
// pass through unchanged.
func Project(relative types.Rect, primaryOrigin types.Point) types.Point {
	return primaryOrigin.Add(relative.Origin())
}

// PrimaryPosition queries the primary window's current position. It is
// read live on every call; caching it would go stale the moment the
// user drags the window.
func PrimaryPosition(h host.Host) (types.Point, error) {
	primary, ok := host.Primary(h)
	if !ok {
		return types.Point{}, ErrHostUnavailable
	}
	pos, err := primary.Position()
	if err != nil {
		return types.Point{}, fmt.Errorf("%w: %v", ErrHostUnavailable, err)
	}
	return pos, nil
}

// Place applies projected position and size to a surface handle
func Place(handle host.Handle, bounds types.Rect, primaryOrigin types.Point) error {
	if err := handle.SetPosition(Project(bounds, primaryOrigin)); err != nil {
		return fmt.Errorf("failed to set position: %w", err)
	}
	if err := handle.SetSize(bounds.Size()); err != nil {
		return fmt.Errorf("failed to set size: %w", err)
	}
	return nil
}
