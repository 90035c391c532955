// ABOUTME: Classifier maps tool names to task categories
// ABOUTME: Total function over a static table; unknown tools get Balanced
package routing

import "github.com/harper/modelbridge/internal/models"

// builtinCategories is the static tool-to-category table. Tools absent
// from it classify as Balanced so that adding a new tool never breaks
// routing.
var builtinCategories = map[string]models.TaskCategory{
	"chat":       models.FastResponse,
	"thinkdeep":  models.ExtendedReasoning,
	"debug":      models.ExtendedReasoning,
	"precommit":  models.ExtendedReasoning,
	"codereview": models.Balanced,
	"analyze":    models.Balanced,
}

// Classifier resolves a tool name to its task category.
type Classifier struct {
	categories map[string]models.TaskCategory
}

// NewClassifier creates a classifier from the built-in table with
// operator overrides merged on top. Overrides may be nil.
func NewClassifier(overrides map[string]models.TaskCategory) *Classifier {
	categories := make(map[string]models.TaskCategory, len(builtinCategories)+len(overrides))
	for tool, cat := range builtinCategories {
		categories[tool] = cat
	}
	for tool, cat := range overrides {
		categories[tool] = cat
	}
	return &Classifier{categories: categories}
}

// Classify returns the task category for a tool name. Unknown tool names
// return Balanced rather than failing; this is part of the contract, not
// an implicit fallthrough.
func (c *Classifier) Classify(toolName string) models.TaskCategory {
	if cat, ok := c.categories[toolName]; ok {
		return cat
	}
	return models.Balanced
}
