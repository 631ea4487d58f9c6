package surface

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/metheus/shell/internal/events"
	"github.com/metheus/shell/internal/host"
	"github.com/metheus/shell/internal/logging"
	"github.com/metheus/shell/internal/monitoring"
	"github.com/metheus/shell/internal/shared/types"
)

// Manager orchestrates embedded surface lifecycle
type Manager struct {
	mu       sync.RWMutex
	visible  map[string]bool       // protected by mu
	bounds   map[string]types.Rect // protected by mu
	activeID *string               // protected by mu

	host    host.Host
	log     *logging.Logger
	metrics *monitoring.Metrics
	events  *events.Hub
}

// NewManager creates a surface manager
func NewManager(h host.Host, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{
		visible: make(map[string]bool),
		bounds:  make(map[string]types.Rect),
		host:    h,
		log:     log.Named("surface"),
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithEvents adds lifecycle event publishing to the manager
func (m *Manager) WithEvents(hub *events.Hub) *Manager {
	m.events = hub
	return m
}

// Create builds a new hidden surface bound to the given locator
func (m *Manager) Create(id, locator string) error {
	m.mu.RLock()
	_, exists := m.visible[id]
	m.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, id)
	}

	handle, err := m.host.Create(id, locator, host.CreateOptions{
		Title:       id,
		Visible:     false,
		Decorations: false,
		AlwaysOnTop: false,
	})
	if err != nil {
		return fmt.Errorf("failed to create surface %s: %w", id, err)
	}

	// Best effort: there may be no primary surface to hand focus back to
	// yet, so a failure here is not fatal.
	if err := handle.Focus(); err != nil {
		m.log.Debug("initial focus failed", zap.String("id", id), zap.Error(err))
	}

	m.mu.Lock()
	m.visible[id] = false
	m.mu.Unlock()

	m.events.Publish("surface.created", map[string]any{"id": id, "locator": locator})
	return nil
}

// Show positions a surface relative to the primary window and makes it
// visible. Activation is part of show, not a separate caller step.
func (m *Manager) Show(id string, bounds types.Rect) error {
	m.mu.Lock()
	if _, exists := m.visible[id]; !exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.bounds[id] = bounds
	m.mu.Unlock()

	origin, err := PrimaryPosition(m.host)
	if err != nil {
		return err
	}

	handle, ok := m.host.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s missing from host", ErrNotFound, id)
	}
	if err := Place(handle, bounds, origin); err != nil {
		return err
	}
	if err := handle.SetVisibleOnAllWorkspaces(true); err != nil {
		return fmt.Errorf("failed to set visibility on all workspaces: %w", err)
	}
	if err := handle.Show(); err != nil {
		return fmt.Errorf("failed to show surface %s: %w", id, err)
	}

	m.mu.Lock()
	wasVisible := m.visible[id]
	m.visible[id] = true
	m.mu.Unlock()

	if !wasVisible && m.metrics != nil {
		m.metrics.SurfacesVisible.Inc()
	}
	m.events.Publish("surface.shown", map[string]any{"id": id, "bounds": bounds})

	return m.SetActive(id)
}

// Hide makes a surface invisible. Hiding an already-hidden surface is a
// no-op returning success.
func (m *Manager) Hide(id string) error {
	m.mu.RLock()
	_, exists := m.visible[id]
	m.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if handle, ok := m.host.Lookup(id); ok {
		if err := handle.Hide(); err != nil {
			return fmt.Errorf("failed to hide surface %s: %w", id, err)
		}
	}

	m.mu.Lock()
	wasVisible := m.visible[id]
	m.visible[id] = false
	if m.activeID != nil && *m.activeID == id {
		m.activeID = nil
	}
	m.mu.Unlock()

	if wasVisible && m.metrics != nil {
		m.metrics.SurfacesVisible.Dec()
	}
	m.events.Publish("surface.hidden", map[string]any{"id": id})
	return nil
}

// Destroy closes a surface and forgets its bookkeeping
func (m *Manager) Destroy(id string) error {
	m.mu.RLock()
	_, exists := m.visible[id]
	m.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	// A handle missing from the host means the surface is already gone;
	// still drop the bookkeeping.
	if handle, ok := m.host.Lookup(id); ok {
		if err := handle.Close(); err != nil {
			return fmt.Errorf("failed to close surface %s: %w", id, err)
		}
	}

	m.mu.Lock()
	wasVisible := m.visible[id]
	delete(m.visible, id)
	delete(m.bounds, id)
	if m.activeID != nil && *m.activeID == id {
		m.activeID = nil
	}
	m.mu.Unlock()

	if wasVisible && m.metrics != nil {
		m.metrics.SurfacesVisible.Dec()
	}
	m.events.Publish("surface.destroyed", map[string]any{"id": id})
	return nil
}

// SetActive brings a visible surface to the front and focuses it
func (m *Manager) SetActive(id string) error {
	m.mu.RLock()
	isVisible, exists := m.visible[id]
	others := make([]string, 0, len(m.visible))
	for otherID, vis := range m.visible {
		if otherID != id && vis {
			others = append(others, otherID)
		}
	}
	m.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !isVisible {
		return fmt.Errorf("%w: %s", ErrNotVisible, id)
	}

	failures, err := Activate(m.host, id, others)
	m.reportBestEffort("surface.set_active", failures)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.activeID = &id
	m.mu.Unlock()

	m.events.Publish("surface.activated", map[string]any{"id": id})
	return nil
}

// ResizeAll recomputes absolute bounds for every visible surface against
// the current primary position. Best effort: per-surface host errors are
// counted and swallowed so one bad surface cannot abort the pass, which
// runs on every primary-window resize event.
func (m *Manager) ResizeAll() int {
	type entry struct {
		id     string
		bounds types.Rect
	}

	m.mu.RLock()
	snapshot := make([]entry, 0, len(m.visible))
	for id, vis := range m.visible {
		if !vis {
			continue
		}
		if b, ok := m.bounds[id]; ok {
			snapshot = append(snapshot, entry{id: id, bounds: b})
		}
	}
	m.mu.RUnlock()

	if len(snapshot) == 0 {
		return 0
	}

	origin, err := PrimaryPosition(m.host)
	if err != nil {
		m.reportBestEffort("surface.resize_all", len(snapshot))
		return len(snapshot)
	}

	failures := 0
	for _, e := range snapshot {
		handle, ok := m.host.Lookup(e.id)
		if !ok {
			failures++
			continue
		}
		if err := Place(handle, e.bounds, origin); err != nil {
			failures++
		}
	}

	m.reportBestEffort("surface.resize_all", failures)
	return failures
}

// ActiveID returns the currently active surface id, if any
func (m *Manager) ActiveID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.activeID == nil {
		return "", false
	}
	return *m.activeID, true
}

// Exists reports whether the registry knows the surface id
func (m *Manager) Exists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.visible[id]
	return ok
}

// IsVisible reports whether a surface is currently visible
func (m *Manager) IsVisible(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.visible[id]
}

// IDs returns all known surface ids
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.visible))
	for id := range m.visible {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) reportBestEffort(operation string, failures int) {
	if failures == 0 {
		return
	}
	m.log.Warn("best-effort pass swallowed host errors",
		zap.String("operation", operation),
		zap.Int("failures", failures))
	m.metrics.RecordBestEffortFailures(operation, failures)
	m.events.Publish("besteffort.failures", map[string]any{
		"operation": operation,
		"failures":  failures,
	})
}
