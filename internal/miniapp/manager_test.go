package miniapp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metheus/shell/internal/host"
	"github.com/metheus/shell/internal/shared/types"
)

func testConfig(id string) types.MiniAppConfig {
	return types.MiniAppConfig{
		ID:   id,
		Name: strings.ToUpper(id),
		URL:  "https://" + id + ".example.com",
	}
}

func newTestManager(t *testing.T) (*Manager, *host.Fake) {
	t.Helper()
	fake := host.NewFakeWithPrimary(types.Point{X: 100, Y: 200})
	return NewManager(fake, nil), fake
}

func TestRegisterResetsState(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.Register(testConfig("notes")))
	st, ok := m.State("notes")
	require.True(t, ok)
	assert.Equal(t, types.StateNotLoaded, st.State)

	// Re-registering after a load resets the lifecycle.
	require.NoError(t, m.Load(context.Background(), "notes"))
	require.NoError(t, m.Register(testConfig("notes")))
	st, _ = m.State("notes")
	assert.Equal(t, types.StateNotLoaded, st.State)
}

func TestRegisterRejectsInvalidConfig(t *testing.T) {
	m, _ := newTestManager(t)

	assert.Error(t, m.Register(types.MiniAppConfig{Name: "x", URL: "https://x"}))
	assert.Error(t, m.Register(types.MiniAppConfig{ID: "x", URL: "https://x"}))
	assert.Error(t, m.Register(types.MiniAppConfig{ID: "x", Name: "x"}))
}

func TestLoadCreatesHiddenSurface(t *testing.T) {
	m, fake := newTestManager(t)
	require.NoError(t, m.Register(testConfig("notes")))

	require.NoError(t, m.Load(context.Background(), "notes"))

	st, _ := m.State("notes")
	assert.Equal(t, types.StateLoaded, st.State)

	s, ok := fake.Surface("notes")
	require.True(t, ok)
	assert.False(t, s.Visible)
	assert.Equal(t, "https://notes.example.com", s.Locator)
}

func TestLoadUnregistered(t *testing.T) {
	m, _ := newTestManager(t)
	assert.ErrorIs(t, m.Load(context.Background(), "ghost"), ErrNotRegistered)
}

func TestLoadTwiceFails(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Register(testConfig("notes")))
	require.NoError(t, m.Load(context.Background(), "notes"))

	assert.ErrorIs(t, m.Load(context.Background(), "notes"), ErrAlreadyLoaded)
}

func TestLoadFailureIsTerminal(t *testing.T) {
	m, fake := newTestManager(t)
	require.NoError(t, m.Register(testConfig("notes")))
	fake.FailOn("create", errors.New("out of windows"))

	require.Error(t, m.Load(context.Background(), "notes"))

	st, _ := m.State("notes")
	assert.Equal(t, types.StateError, st.State)
	assert.Contains(t, st.Message, "out of windows")

	// Error is sticky: show and reload both refuse.
	assert.ErrorIs(t, m.Show("notes", types.Rect{Width: 10, Height: 10}), ErrFaulted)
	fake.FailOn("create", nil)
	assert.ErrorIs(t, m.Load(context.Background(), "notes"), ErrFaulted)
}

func TestUnloadIsOnlyExitFromError(t *testing.T) {
	m, fake := newTestManager(t)
	require.NoError(t, m.Register(testConfig("notes")))
	fake.FailOn("create", errors.New("out of windows"))
	require.Error(t, m.Load(context.Background(), "notes"))
	fake.FailOn("create", nil)

	require.NoError(t, m.Unload("notes"))
	st, _ := m.State("notes")
	assert.Equal(t, types.StateNotLoaded, st.State)

	require.NoError(t, m.Load(context.Background(), "notes"))
	st, _ = m.State("notes")
	assert.Equal(t, types.StateLoaded, st.State)
}

func TestLoadRunsSideEffects(t *testing.T) {
	m, fake := newTestManager(t)
	cfg := testConfig("notes")
	cfg.Metadata.LoadingBehavior.VisibilityScript = "document.body.style.opacity = '1';"
	cfg.Metadata.LoadingBehavior.InjectCSS = "body { margin: 0; }"
	require.NoError(t, m.Register(cfg))

	require.NoError(t, m.Load(context.Background(), "notes"))

	s, ok := fake.Surface("notes")
	require.True(t, ok)
	require.Len(t, s.Scripts, 2)
	assert.Equal(t, "document.body.style.opacity = '1';", s.Scripts[0])
	assert.Contains(t, s.Scripts[1], "body { margin: 0; }")
	assert.Contains(t, s.Scripts[1], "document.head.appendChild")
}

func TestLoadSurvivesSideEffectFailure(t *testing.T) {
	m, fake := newTestManager(t)
	cfg := testConfig("notes")
	cfg.Metadata.LoadingBehavior.VisibilityScript = "boom();"
	require.NoError(t, m.Register(cfg))
	fake.FailOn("evaluateScript", errors.New("script engine down"))

	err := m.Load(context.Background(), "notes")
	require.Error(t, err)

	// The surface exists and the state still reaches loaded.
	st, _ := m.State("notes")
	assert.Equal(t, types.StateLoaded, st.State)
	_, ok := fake.Surface("notes")
	assert.True(t, ok)
}

func TestShowRequiresLoaded(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Register(testConfig("notes")))

	assert.ErrorIs(t, m.Show("notes", types.Rect{Width: 10, Height: 10}), ErrNotReady)
	assert.ErrorIs(t, m.Show("ghost", types.Rect{Width: 10, Height: 10}), ErrNotReady)
}

func TestShowPlacesAndActivates(t *testing.T) {
	m, fake := newTestManager(t)
	require.NoError(t, m.Register(testConfig("notes")))
	require.NoError(t, m.Load(context.Background(), "notes"))

	require.NoError(t, m.Show("notes", types.Rect{X: 10, Y: 20, Width: 300, Height: 400}))

	st, _ := m.State("notes")
	assert.Equal(t, types.StateVisible, st.State)

	s, _ := fake.Surface("notes")
	assert.Equal(t, types.Point{X: 110, Y: 220}, s.Pos)
	assert.Equal(t, types.Size{Width: 300, Height: 400}, s.Dim)
	assert.True(t, s.Visible)

	active, ok := m.ActiveID()
	require.True(t, ok)
	assert.Equal(t, "notes", active)
}

func TestShowIsReentrant(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Register(testConfig("notes")))
	require.NoError(t, m.Load(context.Background(), "notes"))
	require.NoError(t, m.Show("notes", types.Rect{Width: 10, Height: 10}))

	// Showing a visible app refreshes bounds instead of failing.
	require.NoError(t, m.Show("notes", types.Rect{X: 5, Y: 5, Width: 50, Height: 50}))
	st, _ := m.State("notes")
	assert.Equal(t, types.StateVisible, st.State)
}

func TestHideRequiresVisible(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Register(testConfig("notes")))

	assert.ErrorIs(t, m.Hide("notes"), ErrNotVisible)

	require.NoError(t, m.Load(context.Background(), "notes"))
	assert.ErrorIs(t, m.Hide("notes"), ErrNotVisible)
}

func TestHideReturnsToLoaded(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Register(testConfig("notes")))
	require.NoError(t, m.Load(context.Background(), "notes"))
	require.NoError(t, m.Show("notes", types.Rect{Width: 10, Height: 10}))

	require.NoError(t, m.Hide("notes"))

	st, _ := m.State("notes")
	assert.Equal(t, types.StateLoaded, st.State)
	_, ok := m.ActiveID()
	assert.False(t, ok)

	// Hiding twice is an error here, unlike the plain surface registry.
	assert.ErrorIs(t, m.Hide("notes"), ErrNotVisible)
}

func TestUnloadClosesSurface(t *testing.T) {
	m, fake := newTestManager(t)
	require.NoError(t, m.Register(testConfig("notes")))
	require.NoError(t, m.Load(context.Background(), "notes"))
	require.NoError(t, m.Show("notes", types.Rect{Width: 10, Height: 10}))

	require.NoError(t, m.Unload("notes"))

	st, _ := m.State("notes")
	assert.Equal(t, types.StateNotLoaded, st.State)
	_, ok := fake.Surface("notes")
	assert.False(t, ok)
	_, ok = m.ActiveID()
	assert.False(t, ok)
}

func TestUnloadNotLoaded(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Register(testConfig("notes")))

	assert.ErrorIs(t, m.Unload("notes"), ErrNotLoaded)
	assert.ErrorIs(t, m.Unload("ghost"), ErrNotLoaded)
}

func TestSetActiveDemotesOtherMiniApps(t *testing.T) {
	m, fake := newTestManager(t)
	for _, id := range []string{"a", "b"} {
		require.NoError(t, m.Register(testConfig(id)))
		require.NoError(t, m.Load(context.Background(), id))
		require.NoError(t, m.Show(id, types.Rect{Width: 10, Height: 10}))
	}

	require.NoError(t, m.SetActive("a"))

	sa, _ := fake.Surface("a")
	sb, _ := fake.Surface("b")
	assert.False(t, sa.OnBottom)
	assert.True(t, sb.OnBottom)
}

func TestSetActiveRequiresVisible(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Register(testConfig("notes")))
	require.NoError(t, m.Load(context.Background(), "notes"))

	assert.ErrorIs(t, m.SetActive("notes"), ErrNotVisible)
}

func TestResizeAllTracksPrimary(t *testing.T) {
	m, fake := newTestManager(t)
	require.NoError(t, m.Register(testConfig("notes")))
	require.NoError(t, m.Load(context.Background(), "notes"))
	require.NoError(t, m.Show("notes", types.Rect{X: 10, Y: 20, Width: 300, Height: 400}))

	fake.MovePrimary(types.Point{X: 0, Y: 0})
	assert.Zero(t, m.ResizeAll())

	s, _ := fake.Surface("notes")
	assert.Equal(t, types.Point{X: 10, Y: 20}, s.Pos)
}

func TestAllStatesSnapshot(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Register(testConfig("a")))
	require.NoError(t, m.Register(testConfig("b")))
	require.NoError(t, m.Load(context.Background(), "a"))

	states := m.AllStates()
	require.Len(t, states, 2)
	assert.Equal(t, types.StateLoaded, states["a"].State)
	assert.Equal(t, types.StateNotLoaded, states["b"].State)
}

func TestResolverPicksLocator(t *testing.T) {
	m, fake := newTestManager(t)
	m.WithResolver(resolverFunc(func(ctx context.Context, cfg types.MiniAppConfig) string {
		return "https://mirror.example.com"
	}))
	require.NoError(t, m.Register(testConfig("notes")))

	require.NoError(t, m.Load(context.Background(), "notes"))

	s, _ := fake.Surface("notes")
	assert.Equal(t, "https://mirror.example.com", s.Locator)
}

type resolverFunc func(ctx context.Context, cfg types.MiniAppConfig) string

func (f resolverFunc) Resolve(ctx context.Context, cfg types.MiniAppConfig) string {
	return f(ctx, cfg)
}
