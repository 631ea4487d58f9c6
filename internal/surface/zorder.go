package surface

import (
	"fmt"

	"github.com/metheus/shell/internal/host"
)

// Activate promotes the target surface to front-most and focused.
//
// Every other id in othersVisible is first sent to the back; demotion
// failures are counted, not fatal, so a surface vanishing between
// snapshot and iteration cannot abort the pass. Only after the pass
// completes is the target promoted — promoting first would leave two
// surfaces transiently front-most. Promotion failure is a hard error.
//
// Returns the number of swallowed demotion failures.
func Activate(h host.Host, targetID string, othersVisible []string) (int, error) {
	target, ok := h.Lookup(targetID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, targetID)
	}

	failures := 0
	for _, id := range othersVisible {
		if id == targetID {
			continue
		}
		other, ok := h.Lookup(id)
		if !ok {
			continue
		}
		if err := other.SetAlwaysOnBottom(true); err != nil {
			failures++
		}
	}

	if err := target.SetAlwaysOnBottom(false); err != nil {
		return failures, fmt.Errorf("failed to raise surface %s: %w", targetID, err)
	}
	if err := target.Focus(); err != nil {
		return failures, fmt.Errorf("failed to focus surface %s: %w", targetID, err)
	}
	return failures, nil
}
