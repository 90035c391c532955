// ABOUTME: Routing policy types: task categories and operator configuration
// ABOUTME: Defines the three-tier precedence structure for model selection
package models

// TaskCategory is a coarse classification of a tool's latency/quality
// tradeoff, used to pick a default model tier.
type TaskCategory string

const (
	// ExtendedReasoning - deep analysis tools that benefit from the
	// strongest available model
	ExtendedReasoning TaskCategory = "extended_reasoning"

	// FastResponse - conversational tools where latency matters most
	FastResponse TaskCategory = "fast_response"

	// Balanced - everything else; the safe default for unknown tools
	Balanced TaskCategory = "balanced"
)

// ModelPreferenceList is an ordered list of model-name tokens (aliases or
// fully qualified identifiers). First listed is most preferred.
type ModelPreferenceList []string

// Dedupe collapses duplicate tokens to their first occurrence, preserving
// order.
func (l ModelPreferenceList) Dedupe() ModelPreferenceList {
	if len(l) < 2 {
		return l
	}
	seen := make(map[string]bool, len(l))
	out := make(ModelPreferenceList, 0, len(l))
	for _, m := range l {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// CategoryMapping holds the preferred models for one task category.
type CategoryMapping struct {
	PreferredModels ModelPreferenceList `json:"preferred_models"`
}

// ToolOverride reroutes one tool. Category, when set, reclassifies the
// tool before any preference lookup. PreferredModels, when present,
// replaces the tool's preference list outright; when absent (nil) the
// reclassified category's mapping applies instead.
type ToolOverride struct {
	Category        TaskCategory        `json:"category,omitempty"`
	PreferredModels ModelPreferenceList `json:"preferred_models,omitempty"`
}

// ToolOverrides holds per-tool overrides. When enabled, an override for
// a tool takes precedence over its category mapping.
type ToolOverrides struct {
	Enabled   bool                    `json:"enabled"`
	Overrides map[string]ToolOverride `json:"overrides"`
}

// RoutingConfig is the operator-supplied model selection policy. When
// Enabled is false the whole override mechanism is bypassed and built-in
// defaults apply unconditionally. Precedence when enabled: tool override >
// category mapping > built-in default, never reordered.
type RoutingConfig struct {
	Enabled       bool                             `json:"enabled"`
	Mappings      map[TaskCategory]CategoryMapping `json:"mappings"`
	ToolOverrides ToolOverrides                    `json:"tool_overrides"`
}
