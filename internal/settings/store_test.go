package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsSeeded(t *testing.T) {
	s := NewStore()

	setting, ok := s.Get(KeyLaunchToTray)
	require.True(t, ok)
	assert.Equal(t, false, setting.Value)
	assert.Equal(t, "boolean", setting.Type)
	assert.Equal(t, "window", setting.Category)

	assert.Equal(t, "dark", mustGet(t, s, KeyTheme).Value)
	assert.Equal(t, "info", mustGet(t, s, KeyLogLevel).Value)
}

func TestSetKnownKeyKeepsType(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Set(KeyLaunchToTray, true))
	assert.True(t, s.GetBool(KeyLaunchToTray, false))

	err := s.Set(KeyLaunchToTray, "yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected boolean")
	assert.True(t, s.GetBool(KeyLaunchToTray, false), "failed set must not clobber the value")
}

func TestSetRejectsNil(t *testing.T) {
	s := NewStore()
	assert.Error(t, s.Set(KeyTheme, nil))
}

func TestSetUnknownKeyInfersType(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Set("notes.font_size", 14))
	setting := mustGet(t, s, "notes.font_size")
	assert.Equal(t, "number", setting.Type)
	assert.Equal(t, "custom", setting.Category)
	assert.Equal(t, 14, setting.Default)
}

func TestResetRestoresDefault(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Set(KeyTheme, "light"))

	require.NoError(t, s.Reset(KeyTheme))
	assert.Equal(t, "dark", mustGet(t, s, KeyTheme).Value)

	assert.Error(t, s.Reset("no.such.key"))
}

func TestGetBoolFallback(t *testing.T) {
	s := NewStore()
	assert.True(t, s.GetBool("missing", true))
	assert.False(t, s.GetBool(KeyTheme, false), "non-boolean value falls back")
}

func TestListByCategory(t *testing.T) {
	s := NewStore()

	all := s.List("")
	windowOnly := s.List("window")

	assert.Greater(t, len(all), len(windowOnly))
	require.NotEmpty(t, windowOnly)
	for _, setting := range windowOnly {
		assert.Equal(t, "window", setting.Category)
	}
}

func mustGet(t *testing.T, s *Store, key string) Setting {
	t.Helper()
	setting, ok := s.Get(key)
	require.True(t, ok)
	return setting
}
