package miniapp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/metheus/shell/internal/shared/types"
)

// LoadManifests registers every mini-app manifest found in dir. Each
// *.yaml/*.yml file holds one MiniAppConfig. Files that fail to parse or
// validate are skipped with a warning so one bad manifest cannot block
// startup; the number of registered apps is returned.
func (m *Manager) LoadManifests(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read manifest directory %s: %w", dir, err)
	}

	registered := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		cfg, err := parseManifest(path)
		if err != nil {
			m.log.Warn("skipping manifest", zap.String("path", path), zap.Error(err))
			continue
		}
		if err := m.Register(cfg); err != nil {
			m.log.Warn("skipping manifest", zap.String("path", path), zap.Error(err))
			continue
		}
		registered++
	}

	m.log.Info("loaded mini-app manifests",
		zap.String("dir", dir),
		zap.Int("registered", registered))
	return registered, nil
}

func parseManifest(path string) (types.MiniAppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.MiniAppConfig{}, err
	}

	var cfg types.MiniAppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return types.MiniAppConfig{}, fmt.Errorf("invalid manifest: %w", err)
	}
	return cfg, nil
}
