// Package settings provides the typed key/value store the shell core
// consults. Persistence and schema migration live outside the core;
// this store keeps validated values in memory behind the get/set/reset
// contract the managers depend on.
package settings

import (
	"fmt"
	"sync"
)

// Well-known keys the shell consults directly.
const (
	KeyLaunchToTray = "window.launch_to_tray"
	KeyTheme        = "general.theme"
	KeyLogLevel     = "system.log_level"
)

// Setting is one configuration entry
type Setting struct {
	Key         string `json:"key"`
	Value       any    `json:"value"`
	Type        string `json:"type"` // "string", "number", "boolean", "json"
	Category    string `json:"category"`
	Description string `json:"description"`
	Default     any    `json:"default"`
}

// Store holds settings in memory
type Store struct {
	cache sync.Map // key -> Setting
}

// NewStore creates a store seeded with shell defaults
func NewStore() *Store {
	s := &Store{}
	s.initializeDefaults()
	return s
}

func (s *Store) initializeDefaults() {
	defaults := []Setting{
		{Key: KeyLaunchToTray, Value: false, Type: "boolean", Category: "window", Description: "Start minimized to the system tray", Default: false},
		{Key: "window.remember_bounds", Value: true, Type: "boolean", Category: "window", Description: "Restore window bounds on launch", Default: true},
		{Key: KeyTheme, Value: "dark", Type: "string", Category: "general", Description: "UI theme", Default: "dark"},
		{Key: "general.language", Value: "en", Type: "string", Category: "general", Description: "Interface language", Default: "en"},
		{Key: KeyLogLevel, Value: "info", Type: "string", Category: "system", Description: "Logging level", Default: "info"},
		{Key: "miniapp.probe_sources", Value: true, Type: "boolean", Category: "miniapp", Description: "Probe mini-app sources before loading", Default: true},
		{Key: "agent.timeout_seconds", Value: 10, Type: "number", Category: "agent", Description: "Agent execution timeout", Default: 10},
	}
	for _, d := range defaults {
		s.cache.Store(d.Key, d)
	}
}

// Get returns a setting by key
func (s *Store) Get(key string) (Setting, bool) {
	val, ok := s.cache.Load(key)
	if !ok {
		return Setting{}, false
	}
	return val.(Setting), true
}

// GetBool returns a boolean setting, or the fallback when the key is
// missing or not a boolean
func (s *Store) GetBool(key string, fallback bool) bool {
	setting, ok := s.Get(key)
	if !ok {
		return fallback
	}
	if b, ok := setting.Value.(bool); ok {
		return b
	}
	return fallback
}

// Set stores a value. Known keys keep their declared type and reject
// mismatched values; unknown keys get an inferred type under the custom
// category.
func (s *Store) Set(key string, value any) error {
	if value == nil {
		return fmt.Errorf("setting %s: value required", key)
	}

	if val, ok := s.cache.Load(key); ok {
		setting := val.(Setting)
		if inferType(value) != setting.Type {
			return fmt.Errorf("setting %s: expected %s, got %s", key, setting.Type, inferType(value))
		}
		setting.Value = value
		s.cache.Store(key, setting)
		return nil
	}

	s.cache.Store(key, Setting{
		Key:      key,
		Value:    value,
		Type:     inferType(value),
		Category: "custom",
		Default:  value,
	})
	return nil
}

// Reset restores a setting to its default value
func (s *Store) Reset(key string) error {
	val, ok := s.cache.Load(key)
	if !ok {
		return fmt.Errorf("setting not found: %s", key)
	}
	setting := val.(Setting)
	setting.Value = setting.Default
	s.cache.Store(key, setting)
	return nil
}

// List returns all settings, optionally filtered by category
func (s *Store) List(category string) []Setting {
	var out []Setting
	s.cache.Range(func(_, value any) bool {
		setting := value.(Setting)
		if category == "" || setting.Category == category {
			out = append(out, setting)
		}
		return true
	})
	return out
}

func inferType(value any) string {
	switch value.(type) {
	case bool:
		return "boolean"
	case float64, float32, int, int32, int64:
		return "number"
	case string:
		return "string"
	default:
		return "json"
	}
}
