package miniapp

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/metheus/shell/internal/events"
	"github.com/metheus/shell/internal/host"
	"github.com/metheus/shell/internal/logging"
	"github.com/metheus/shell/internal/monitoring"
	"github.com/metheus/shell/internal/shared/types"
	"github.com/metheus/shell/internal/surface"
)

// SourceResolver picks the locator a mini-app should load from,
// consulting fallback URLs when the primary is unreachable.
type SourceResolver interface {
	Resolve(ctx context.Context, cfg types.MiniAppConfig) string
}

// Manager orchestrates mini-app lifecycle
type Manager struct {
	mu       sync.RWMutex
	configs  map[string]types.MiniAppConfig // protected by mu, read-only after register
	states   map[string]types.MiniAppState  // protected by mu
	bounds   map[string]types.Rect          // protected by mu
	activeID *string                        // protected by mu

	host     host.Host
	resolver SourceResolver
	log      *logging.Logger
	metrics  *monitoring.Metrics
	events   *events.Hub
}

// NewManager creates a mini-app manager
func NewManager(h host.Host, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{
		configs: make(map[string]types.MiniAppConfig),
		states:  make(map[string]types.MiniAppState),
		bounds:  make(map[string]types.Rect),
		host:    h,
		log:     log.Named("miniapp"),
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

// WithResolver adds fallback source resolution to the manager
func (m *Manager) WithResolver(r SourceResolver) *Manager {
	m.resolver = r
	return m
}

// Register upserts a mini-app configuration and resets its lifecycle to
// not_loaded. Registration never touches the host.
func (m *Manager) Register(cfg types.MiniAppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.configs[cfg.ID] = cfg
	m.states[cfg.ID] = types.MiniAppState{State: types.StateNotLoaded}
	m.mu.Unlock()

	m.events.Publish("miniapp.registered", map[string]any{"id": cfg.ID, "name": cfg.Name})
	return nil
}

// Load creates the host surface for a registered mini-app and runs its
// post-load side effects.
//
// A surface-creation failure is terminal: the mini-app moves to the
// error state and stays there until Unload. Side-effect failures
// (visibility script, CSS injection) are surfaced to the caller but the
// surface stays created and the state still reaches loaded.
func (m *Manager) Load(ctx context.Context, id string) error {
	m.mu.Lock()
	switch st := m.states[id]; {
	case st.Loaded():
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyLoaded, id)
	case st.State == types.StateError:
		m.mu.Unlock()
		return fmt.Errorf("%w: %s: %s", ErrFaulted, id, st.Message)
	}
	cfg, registered := m.configs[id]
	if !registered {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}
	m.states[id] = types.MiniAppState{State: types.StateLoading}
	m.mu.Unlock()

	locator := cfg.URL
	if m.resolver != nil {
		locator = m.resolver.Resolve(ctx, cfg)
	}

	handle, err := m.host.Create(id, locator, host.CreateOptions{
		Title:       cfg.Name,
		Visible:     false,
		Decorations: false,
		AlwaysOnTop: false,
	})
	if err != nil {
		m.setState(id, types.MiniAppState{State: types.StateError, Message: err.Error()})
		return fmt.Errorf("failed to create surface for mini-app %s: %w", id, err)
	}

	// Best effort; no primary surface may exist yet.
	if err := handle.Focus(); err != nil {
		m.log.Debug("initial focus failed", zap.String("id", id), zap.Error(err))
	}

	var sideEffectErr error
	if script := cfg.Metadata.LoadingBehavior.VisibilityScript; script != "" {
		if err := handle.EvaluateScript(script); err != nil {
			sideEffectErr = fmt.Errorf("failed to execute visibility script for %s: %w", id, err)
		}
	}
	if css := cfg.Metadata.LoadingBehavior.InjectCSS; css != "" && sideEffectErr == nil {
		if err := handle.EvaluateScript(cssInjection(css)); err != nil {
			sideEffectErr = fmt.Errorf("failed to inject CSS for %s: %w", id, err)
		}
	}

	m.setState(id, types.MiniAppState{State: types.StateLoaded})
	if m.metrics != nil {
		m.metrics.MiniAppsLoaded.Inc()
	}
	return sideEffectErr
}

// Show positions a loaded mini-app relative to the primary window and
// makes it visible, then activates it.
func (m *Manager) Show(id string, bounds types.Rect) error {
	m.mu.Lock()
	st, known := m.states[id]
	switch {
	case !known, st.State == types.StateNotLoaded, st.State == types.StateLoading:
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotReady, id)
	case st.State == types.StateError:
		m.mu.Unlock()
		return fmt.Errorf("%w: %s: %s", ErrFaulted, id, st.Message)
	}
	m.bounds[id] = bounds
	m.mu.Unlock()

	origin, err := surface.PrimaryPosition(m.host)
	if err != nil {
		return err
	}

	handle, ok := m.host.Lookup(id)
	if !ok {
		return fmt.Errorf("surface for mini-app %s not found", id)
	}
	if err := surface.Place(handle, bounds, origin); err != nil {
		return err
	}
	if err := handle.SetVisibleOnAllWorkspaces(true); err != nil {
		return fmt.Errorf("failed to set visibility on all workspaces: %w", err)
	}
	if err := handle.Show(); err != nil {
		return fmt.Errorf("failed to show mini-app %s: %w", id, err)
	}

	m.setState(id, types.MiniAppState{State: types.StateVisible})
	return m.SetActive(id)
}

// Hide conceals a visible mini-app, returning it to loaded. Unlike the
// simple surface registry, hiding a non-visible mini-app is an error.
func (m *Manager) Hide(id string) error {
	m.mu.RLock()
	st := m.states[id]
	m.mu.RUnlock()
	if st.State != types.StateVisible {
		return fmt.Errorf("%w: %s", ErrNotVisible, id)
	}

	handle, ok := m.host.Lookup(id)
	if !ok {
		return fmt.Errorf("surface for mini-app %s not found", id)
	}
	if err := handle.Hide(); err != nil {
		return fmt.Errorf("failed to hide mini-app %s: %w", id, err)
	}

	m.mu.Lock()
	m.states[id] = types.MiniAppState{State: types.StateLoaded}
	if m.activeID != nil && *m.activeID == id {
		m.activeID = nil
	}
	m.mu.Unlock()

	m.events.Publish("miniapp.state", map[string]any{"id": id, "state": types.StateLoaded})
	return nil
}

// Unload closes the mini-app's host surface and returns it to
// not_loaded. This is also the only exit from the error state.
func (m *Manager) Unload(id string) error {
	m.mu.RLock()
	st, known := m.states[id]
	m.mu.RUnlock()
	if !known || st.State == types.StateNotLoaded || st.State == types.StateLoading {
		return fmt.Errorf("%w: %s", ErrNotLoaded, id)
	}

	// In the error state surface creation may have failed outright, so a
	// missing handle is expected there.
	if handle, ok := m.host.Lookup(id); ok {
		if err := handle.Close(); err != nil {
			return fmt.Errorf("failed to close mini-app %s: %w", id, err)
		}
	}

	m.mu.Lock()
	m.states[id] = types.MiniAppState{State: types.StateNotLoaded}
	delete(m.bounds, id)
	if m.activeID != nil && *m.activeID == id {
		m.activeID = nil
	}
	m.mu.Unlock()

	if st.Loaded() && m.metrics != nil {
		m.metrics.MiniAppsLoaded.Dec()
	}
	m.events.Publish("miniapp.state", map[string]any{"id": id, "state": types.StateNotLoaded})
	return nil
}

// SetActive brings a visible mini-app to the front and focuses it
func (m *Manager) SetActive(id string) error {
	m.mu.RLock()
	st := m.states[id]
	others := make([]string, 0, len(m.states))
	for otherID, otherState := range m.states {
		if otherID != id && otherState.State == types.StateVisible {
			others = append(others, otherID)
		}
	}
	m.mu.RUnlock()

	if st.State != types.StateVisible {
		return fmt.Errorf("%w: %s", ErrNotVisible, id)
	}

	failures, err := surface.Activate(m.host, id, others)
	m.reportBestEffort("miniapp.set_active", failures)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.activeID = &id
	m.mu.Unlock()

	m.events.Publish("miniapp.activated", map[string]any{"id": id})
	return nil
}

// ResizeAll recomputes absolute bounds for every visible mini-app.
// Best effort: per-app host errors are counted and swallowed.
func (m *Manager) ResizeAll() int {
	type entry struct {
		id     string
		bounds types.Rect
	}

	m.mu.RLock()
	snapshot := make([]entry, 0, len(m.states))
	for id, st := range m.states {
		if st.State != types.StateVisible {
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

	origin, err := surface.PrimaryPosition(m.host)
	if err != nil {
		m.reportBestEffort("miniapp.resize_all", len(snapshot))
		return len(snapshot)
	}

	failures := 0
	for _, e := range snapshot {
		handle, ok := m.host.Lookup(e.id)
		if !ok {
			failures++
			continue
		}
		if err := surface.Place(handle, e.bounds, origin); err != nil {
			failures++
		}
	}

	m.reportBestEffort("miniapp.resize_all", failures)
	return failures
}

// Config returns a registered configuration by id
func (m *Manager) Config(id string) (types.MiniAppConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[id]
	return cfg, ok
}

// AllConfigs returns all registered configurations
func (m *Manager) AllConfigs() []types.MiniAppConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	configs := make([]types.MiniAppConfig, 0, len(m.configs))
	for _, cfg := range m.configs {
		configs = append(configs, cfg)
	}
	return configs
}

// State returns the lifecycle state for an id
func (m *Manager) State(id string) (types.MiniAppState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[id]
	return st, ok
}

// AllStates returns a copy of every mini-app's lifecycle state
func (m *Manager) AllStates() map[string]types.MiniAppState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	states := make(map[string]types.MiniAppState, len(m.states))
	for id, st := range m.states {
		states[id] = st
	}
	return states
}

// ActiveID returns the currently active mini-app id, if any
func (m *Manager) ActiveID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.activeID == nil {
		return "", false
	}
	return *m.activeID, true
}

func (m *Manager) setState(id string, st types.MiniAppState) {
	m.mu.Lock()
	m.states[id] = st
	m.mu.Unlock()
	m.events.Publish("miniapp.state", map[string]any{
		"id":      id,
		"state":   st.State,
		"message": st.Message,
	})
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

// cssInjection wraps a stylesheet in the script that appends it to the
// document head.
func cssInjection(css string) string {
	return fmt.Sprintf(`
(function() {
    const style = document.createElement('style');
    style.textContent = %s;
    document.head.appendChild(style);
})();
`, "`"+css+"`")
}
