package types

import (
	"fmt"
	"net/url"
	"strings"
)

// LifecycleState represents mini-app lifecycle states
type LifecycleState string

const (
	StateNotLoaded LifecycleState = "not_loaded"
	StateLoading   LifecycleState = "loading"
	StateLoaded    LifecycleState = "loaded"
	StateVisible   LifecycleState = "visible"
	StateError     LifecycleState = "error"
)

// MiniAppState pairs a lifecycle state with the error message carried by
// the error state. The message is empty in every other state.
type MiniAppState struct {
	State   LifecycleState `json:"state"`
	Message string         `json:"message,omitempty"`
}

// Loaded reports whether the mini-app has a live host surface that can be shown
func (s MiniAppState) Loaded() bool {
	return s.State == StateLoaded || s.State == StateVisible
}

// MiniAppConfig describes a registered mini-app
type MiniAppConfig struct {
	ID       string          `json:"id" yaml:"id"`
	Name     string          `json:"name" yaml:"name"`
	URL      string          `json:"url" yaml:"url"`
	Icon     string          `json:"icon,omitempty" yaml:"icon,omitempty"`
	Metadata MiniAppMetadata `json:"metadata" yaml:"metadata"`
}

// MiniAppMetadata carries the typed preference blocks plus an open
// settings map for app-specific values the core passes through untouched
type MiniAppMetadata struct {
	FallbackURLs        []string             `json:"fallback_urls,omitempty" yaml:"fallback_urls,omitempty"`
	WebPreferences      WebPreferences       `json:"web_preferences" yaml:"web_preferences"`
	LoadingBehavior     LoadingBehavior      `json:"loading_behavior" yaml:"loading_behavior"`
	LinkHandling        LinkHandling         `json:"link_handling" yaml:"link_handling"`
	UI                  UIConfig             `json:"ui" yaml:"ui"`
	BrowserCapabilities BrowserCapabilities  `json:"browser_capabilities" yaml:"browser_capabilities"`
	Settings            map[string]SettingValue `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// SettingValue is a tagged variant for open per-app settings. Exactly one
// of the typed fields is meaningful, selected by Type.
type SettingValue struct {
	Type   string  `json:"type" yaml:"type"` // "string", "number", "boolean"
	String string  `json:"string,omitempty" yaml:"string,omitempty"`
	Number float64 `json:"number,omitempty" yaml:"number,omitempty"`
	Bool   bool    `json:"bool,omitempty" yaml:"bool,omitempty"`
}

// WebPreferences controls the embedded view's engine features
type WebPreferences struct {
	Sandbox                     bool `json:"sandbox" yaml:"sandbox"`
	ContextIsolation            bool `json:"context_isolation" yaml:"context_isolation"`
	WebSecurity                 bool `json:"web_security" yaml:"web_security"`
	AllowRunningInsecureContent bool `json:"allow_running_insecure_content" yaml:"allow_running_insecure_content"`
	BackgroundThrottling        bool `json:"background_throttling" yaml:"background_throttling"`
}

// LoadingBehavior controls post-create load steps
type LoadingBehavior struct {
	PrioritizeFileURLs bool   `json:"prioritize_file_urls" yaml:"prioritize_file_urls"`
	VisibilityScript   string `json:"visibility_script,omitempty" yaml:"visibility_script,omitempty"`
	InjectCSS          string `json:"inject_css,omitempty" yaml:"inject_css,omitempty"`
	LoadBlankFirst     bool   `json:"load_blank_first" yaml:"load_blank_first"`
	AttachImmediately  bool   `json:"attach_immediately" yaml:"attach_immediately"`
}

// LinkHandling controls navigation routing
type LinkHandling struct {
	HandleNavigation    bool     `json:"handle_navigation" yaml:"handle_navigation"`
	ExternalURLPatterns []string `json:"external_url_patterns,omitempty" yaml:"external_url_patterns,omitempty"`
	InternalURLPatterns []string `json:"internal_url_patterns,omitempty" yaml:"internal_url_patterns,omitempty"`
}

// UIConfig controls content presentation
type UIConfig struct {
	CenterContent   bool           `json:"center_content" yaml:"center_content"`
	MaxContentWidth uint32         `json:"max_content_width,omitempty" yaml:"max_content_width,omitempty"`
	BackgroundColor string         `json:"background_color,omitempty" yaml:"background_color,omitempty"`
	ContentPadding  ContentPadding `json:"content_padding" yaml:"content_padding"`
}

// ContentPadding declares padding around mini-app content
type ContentPadding struct {
	Top    uint32 `json:"top" yaml:"top"`
	Right  uint32 `json:"right" yaml:"right"`
	Bottom uint32 `json:"bottom" yaml:"bottom"`
	Left   uint32 `json:"left" yaml:"left"`
}

// BrowserCapabilities controls which browser APIs a mini-app may use
type BrowserCapabilities struct {
	AllowLocalStorage bool `json:"allow_local_storage" yaml:"allow_local_storage"`
	AllowIndexedDB    bool `json:"allow_indexed_db" yaml:"allow_indexed_db"`
	AllowAllAPIs      bool `json:"allow_all_apis" yaml:"allow_all_apis"`
}

// Validate checks the typed fields of a mini-app config
func (c *MiniAppConfig) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("mini-app config: id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("mini-app config %s: name is required", c.ID)
	}
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("mini-app config %s: url is required", c.ID)
	}
	if _, err := url.Parse(c.URL); err != nil {
		return fmt.Errorf("mini-app config %s: invalid url: %w", c.ID, err)
	}
	for i, fallback := range c.Metadata.FallbackURLs {
		if _, err := url.Parse(fallback); err != nil {
			return fmt.Errorf("mini-app config %s: invalid fallback url %d: %w", c.ID, i, err)
		}
	}
	for key, val := range c.Metadata.Settings {
		switch val.Type {
		case "string", "number", "boolean":
		default:
			return fmt.Errorf("mini-app config %s: setting %s has unknown type %q", c.ID, key, val.Type)
		}
	}
	return nil
}
