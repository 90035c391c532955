// ABOUTME: Resolver merges operator routing config with built-in defaults
// ABOUTME: Strict precedence: tool override > category mapping > built-in
package routing

import (
	"errors"
	"fmt"

	"github.com/harper/modelbridge/internal/models"
)

// ErrEmptyPreferenceList indicates the matched tier resolved to an empty
// list. Callers must treat this as resolver failure, never as "use any
// model".
var ErrEmptyPreferenceList = errors.New("preference list is empty")

// builtinDefaults are the model tiers used when no operator config
// applies.
var builtinDefaults = map[models.TaskCategory]models.ModelPreferenceList{
	models.ExtendedReasoning: {"pro", "google/gemini-2.5-pro"},
	models.FastResponse:      {"flash", "google/gemini-2.5-flash"},
	models.Balanced:          {"flash", "pro"},
}

// DefaultPreferences returns the built-in preference list for a category.
// Categories without an entry fall back to the Balanced tier.
func DefaultPreferences(category models.TaskCategory) models.ModelPreferenceList {
	if prefs, ok := builtinDefaults[category]; ok {
		return prefs
	}
	return builtinDefaults[models.Balanced]
}

// EffectiveCategory applies a tool override's category reclassification.
// An enabled override naming a category reroutes the tool to that
// category before any preference lookup; otherwise the classifier's
// category stands.
func EffectiveCategory(toolName string, category models.TaskCategory, cfg *models.RoutingConfig) models.TaskCategory {
	if cfg == nil || !cfg.Enabled || !cfg.ToolOverrides.Enabled {
		return category
	}
	if override, ok := cfg.ToolOverrides.Overrides[toolName]; ok && override.Category != "" {
		return override.Category
	}
	return category
}

// Resolve produces the ordered candidate list for one invocation. The
// first matching tier wins and its entire list is returned; later tiers
// are never consulted once a tier matches, even if the matched list turns
// out to be empty.
func Resolve(toolName string, category models.TaskCategory, cfg *models.RoutingConfig) (models.ModelPreferenceList, error) {
	prefs := resolveTier(toolName, category, cfg)
	prefs = prefs.Dedupe()
	if len(prefs) == 0 {
		return nil, fmt.Errorf("resolve %s/%s: %w", toolName, category, ErrEmptyPreferenceList)
	}
	return prefs, nil
}

func resolveTier(toolName string, category models.TaskCategory, cfg *models.RoutingConfig) models.ModelPreferenceList {
	if cfg == nil || !cfg.Enabled {
		return DefaultPreferences(category)
	}
	if cfg.ToolOverrides.Enabled {
		if override, ok := cfg.ToolOverrides.Overrides[toolName]; ok && override.PreferredModels != nil {
			// A nil list means the override only reclassifies the
			// category; the category tier below applies. An explicit
			// empty list is still returned and fails as empty.
			return override.PreferredModels
		}
	}
	if mapping, ok := cfg.Mappings[category]; ok {
		return mapping.PreferredModels
	}
	return DefaultPreferences(category)
}
