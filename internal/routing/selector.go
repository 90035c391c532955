// ABOUTME: Selector picks the first usable model from a preference list
// ABOUTME: Never substitutes a model the operator did not list
package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harper/modelbridge/internal/models"
)

// ErrNoCandidateModel indicates every candidate in the preference list
// failed the availability probe. It is surfaced verbatim; silently
// substituting an unlisted model would break the operator's cost/quality
// expectations.
var ErrNoCandidateModel = errors.New("no candidate model available")

// Probe tests whether a fully qualified model identifier is currently
// usable. It is an external collaborator (network/credentials check).
type Probe func(ctx context.Context, model string) bool

// Select iterates the preference list in order, resolves each token
// through the alias table, and returns the first identifier the probe
// accepts. Exhausting the list is an explicit error, never a fallback.
func Select(ctx context.Context, prefs models.ModelPreferenceList, aliases *AliasTable, probe Probe) (string, error) {
	tried := make([]string, 0, len(prefs))
	for _, token := range prefs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		model := aliases.Resolve(token)
		if probe(ctx, model) {
			return model, nil
		}
		tried = append(tried, model)
	}
	return "", fmt.Errorf("%w: tried [%s]", ErrNoCandidateModel, strings.Join(tried, ", "))
}
