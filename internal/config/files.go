// ABOUTME: Loads the routing policy and alias table from JSON files
// ABOUTME: Absent file means built-in defaults; malformed file refuses startup
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/harper/modelbridge/internal/models"
)

// ErrInvalidConfig indicates a policy file is present but malformed.
// Running with a partially-parsed policy could silently violate an
// operator's cost/quality intent, so the process refuses to start.
var ErrInvalidConfig = errors.New("invalid configuration")

// LoadRoutingConfig reads the operator routing policy. A missing file is
// equivalent to a disabled policy and returns (nil, nil).
func LoadRoutingConfig(path string) (*models.RoutingConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
	}

	var cfg models.RoutingConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	if err := validateRoutingConfig(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return &cfg, nil
}

// validateRoutingConfig rejects enabled policies with empty preference
// lists at load time. The resolver also rejects empty lists at request
// time for configs injected programmatically.
func validateRoutingConfig(cfg *models.RoutingConfig) error {
	if !cfg.Enabled {
		return nil
	}
	for category, mapping := range cfg.Mappings {
		if len(mapping.PreferredModels) == 0 {
			return fmt.Errorf("category %q has an empty preferred_models list", category)
		}
	}
	if cfg.ToolOverrides.Enabled {
		for tool, override := range cfg.ToolOverrides.Overrides {
			// An override may reclassify (category), replace the
			// preference list, or both. A list written as [] and an
			// entry doing neither are operator mistakes.
			if override.PreferredModels == nil {
				if override.Category == "" {
					return fmt.Errorf("tool override %q names neither a category nor preferred_models", tool)
				}
				continue
			}
			if len(override.PreferredModels) == 0 {
				return fmt.Errorf("tool override %q has an empty preferred_models list", tool)
			}
		}
	}
	return nil
}

type aliasFile struct {
	Aliases map[string]string `json:"aliases"`
}

// LoadAliases reads the operator alias table. A missing file returns
// (nil, nil); the built-in aliases still apply.
func LoadAliases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
	}

	var file aliasFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	for short, full := range file.Aliases {
		if short == "" || full == "" {
			return nil, fmt.Errorf("%w: %s: alias entries must be non-empty (%q -> %q)", ErrInvalidConfig, path, short, full)
		}
	}
	return file.Aliases, nil
}
