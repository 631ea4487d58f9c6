package surface

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metheus/shell/internal/host"
	"github.com/metheus/shell/internal/shared/types"
)

func newTestManager(t *testing.T) (*Manager, *host.Fake) {
	t.Helper()
	fake := host.NewFakeWithPrimary(types.Point{X: 100, Y: 200})
	return NewManager(fake, nil), fake
}

func TestCreateStartsHidden(t *testing.T) {
	m, fake := newTestManager(t)

	require.NoError(t, m.Create("panel", "https://example.com"))

	assert.True(t, m.Exists("panel"))
	assert.False(t, m.IsVisible("panel"))

	s, ok := fake.Surface("panel")
	require.True(t, ok)
	assert.False(t, s.Visible)
	assert.False(t, s.Opts.Decorations)
	assert.False(t, s.Opts.AlwaysOnTop)
}

func TestCreateDuplicateFails(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.Create("panel", "https://example.com"))
	err := m.Create("panel", "https://example.com")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreateSurvivesFocusFailure(t *testing.T) {
	m, fake := newTestManager(t)
	fake.FailOn("focus", errors.New("no focus target"))

	require.NoError(t, m.Create("panel", "https://example.com"))
	assert.True(t, m.Exists("panel"))
}

func TestShowProjectsAgainstPrimary(t *testing.T) {
	m, fake := newTestManager(t)
	require.NoError(t, m.Create("panel", "https://example.com"))

	bounds := types.Rect{X: 10, Y: 20, Width: 300, Height: 400}
	require.NoError(t, m.Show("panel", bounds))

	s, ok := fake.Surface("panel")
	require.True(t, ok)
	assert.Equal(t, types.Point{X: 110, Y: 220}, s.Pos)
	assert.Equal(t, types.Size{Width: 300, Height: 400}, s.Dim)
	assert.True(t, s.Visible)
	assert.True(t, m.IsVisible("panel"))

	active, ok := m.ActiveID()
	require.True(t, ok)
	assert.Equal(t, "panel", active)
}

func TestShowUnknownSurface(t *testing.T) {
	m, _ := newTestManager(t)

	err := m.Show("ghost", types.Rect{Width: 10, Height: 10})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShowWithoutPrimary(t *testing.T) {
	m, fake := newTestManager(t)
	require.NoError(t, m.Create("panel", "https://example.com"))

	fake.RemovePrimary()
	err := m.Show("panel", types.Rect{Width: 10, Height: 10})
	assert.ErrorIs(t, err, ErrHostUnavailable)
}

func TestHideIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Create("panel", "https://example.com"))
	require.NoError(t, m.Show("panel", types.Rect{Width: 10, Height: 10}))

	require.NoError(t, m.Hide("panel"))
	assert.False(t, m.IsVisible("panel"))

	// Hiding again succeeds without touching visibility.
	require.NoError(t, m.Hide("panel"))
	assert.False(t, m.IsVisible("panel"))
}

func TestHideClearsActive(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Create("panel", "https://example.com"))
	require.NoError(t, m.Show("panel", types.Rect{Width: 10, Height: 10}))

	_, ok := m.ActiveID()
	require.True(t, ok)

	require.NoError(t, m.Hide("panel"))
	_, ok = m.ActiveID()
	assert.False(t, ok)
}

func TestHideUnknownSurface(t *testing.T) {
	m, _ := newTestManager(t)
	assert.ErrorIs(t, m.Hide("ghost"), ErrNotFound)
}

func TestDestroyForgetsSurface(t *testing.T) {
	m, fake := newTestManager(t)
	require.NoError(t, m.Create("panel", "https://example.com"))
	require.NoError(t, m.Show("panel", types.Rect{Width: 10, Height: 10}))

	require.NoError(t, m.Destroy("panel"))

	assert.False(t, m.Exists("panel"))
	_, ok := m.ActiveID()
	assert.False(t, ok)
	_, ok = fake.Surface("panel")
	assert.False(t, ok)

	// The id is reusable after destroy.
	require.NoError(t, m.Create("panel", "https://example.com"))
}

func TestDestroyToleratesMissingHandle(t *testing.T) {
	m, fake := newTestManager(t)
	require.NoError(t, m.Create("panel", "https://example.com"))

	// Simulate the host dropping the window behind our back.
	s, ok := fake.Surface("panel")
	require.True(t, ok)
	require.NoError(t, s.Close())

	require.NoError(t, m.Destroy("panel"))
	assert.False(t, m.Exists("panel"))
}

func TestSetActiveDemotesBeforePromoting(t *testing.T) {
	m, fake := newTestManager(t)
	require.NoError(t, m.Create("a", "https://a.example"))
	require.NoError(t, m.Create("b", "https://b.example"))
	require.NoError(t, m.Show("a", types.Rect{Width: 10, Height: 10}))
	require.NoError(t, m.Show("b", types.Rect{Width: 10, Height: 10}))

	require.NoError(t, m.SetActive("a"))

	calls := fake.Calls()
	demote := -1
	promote := -1
	for i := len(calls) - 1; i >= 0; i-- {
		switch calls[i] {
		case "setAlwaysOnBottom:b:true":
			if demote < 0 {
				demote = i
			}
		case "setAlwaysOnBottom:a:false":
			if promote < 0 {
				promote = i
			}
		}
	}
	require.GreaterOrEqual(t, demote, 0, "expected b to be demoted")
	require.GreaterOrEqual(t, promote, 0, "expected a to be promoted")
	assert.Less(t, demote, promote, "demotion must precede promotion")

	active, ok := m.ActiveID()
	require.True(t, ok)
	assert.Equal(t, "a", active)
}

func TestSetActiveRequiresVisible(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Create("panel", "https://example.com"))

	assert.ErrorIs(t, m.SetActive("panel"), ErrNotVisible)
	assert.ErrorIs(t, m.SetActive("ghost"), ErrNotFound)
}

func TestResizeAllRepositionsVisibleOnly(t *testing.T) {
	m, fake := newTestManager(t)
	require.NoError(t, m.Create("a", "https://a.example"))
	require.NoError(t, m.Create("b", "https://b.example"))
	require.NoError(t, m.Show("a", types.Rect{X: 10, Y: 20, Width: 300, Height: 400}))
	require.NoError(t, m.Show("b", types.Rect{X: 1, Y: 2, Width: 30, Height: 40}))
	require.NoError(t, m.Hide("b"))

	fake.MovePrimary(types.Point{X: 500, Y: 600})
	failures := m.ResizeAll()
	assert.Zero(t, failures)

	a, ok := fake.Surface("a")
	require.True(t, ok)
	assert.Equal(t, types.Point{X: 510, Y: 620}, a.Pos)

	// Hidden surfaces keep their stale position until next show.
	b, ok := fake.Surface("b")
	require.True(t, ok)
	assert.Equal(t, types.Point{X: 101, Y: 202}, b.Pos)
}

func TestResizeAllCountsFailures(t *testing.T) {
	m, fake := newTestManager(t)
	require.NoError(t, m.Create("a", "https://a.example"))
	require.NoError(t, m.Show("a", types.Rect{Width: 10, Height: 10}))

	fake.FailOn("setPosition", errors.New("window gone"))
	assert.Equal(t, 1, m.ResizeAll())
}

func TestResizeAllWithoutPrimary(t *testing.T) {
	m, fake := newTestManager(t)
	require.NoError(t, m.Create("a", "https://a.example"))
	require.NoError(t, m.Show("a", types.Rect{Width: 10, Height: 10}))

	fake.RemovePrimary()
	assert.Equal(t, 1, m.ResizeAll())
}

func TestResizeAllEmptyRegistry(t *testing.T) {
	m, _ := newTestManager(t)
	assert.Zero(t, m.ResizeAll())
}
