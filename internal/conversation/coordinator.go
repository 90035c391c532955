// ABOUTME: Coordinator orchestrates one tool invocation end to end
// ABOUTME: Resume or start a thread, route to a model, persist the turn
package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/harper/modelbridge/internal/models"
	"github.com/harper/modelbridge/internal/routing"
	"github.com/harper/modelbridge/internal/util"
)

// State tracks where an invocation is in its lifecycle. DONE and FAILED
// are terminal.
type State string

const (
	StateNew        State = "NEW"
	StateResuming   State = "RESUMING"
	StateRouting    State = "ROUTING"
	StatePersisting State = "PERSISTING"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

// Invocation is one tool call arriving over the protocol boundary. An
// empty ThreadID means "start a new conversation".
type Invocation struct {
	ToolName string
	Input    string
	ThreadID string
}

// Result is what the protocol layer returns to the client. On a persist
// failure Output and ModelUsed are still populated so the model's answer
// is never silently dropped.
type Result struct {
	State          State
	Output         string
	ModelUsed      string
	ThreadID       string
	SequenceNumber int64
}

// ModelCaller performs the external model call. It must honor context
// cancellation; the coordinator persists nothing when the call aborts.
type ModelCaller interface {
	Call(ctx context.Context, model string, history []models.Turn, input string) (string, error)
}

// Coordinator wires routing and the thread store together. It holds only
// immutable configuration and is safe for concurrent use; the store is
// the sole shared mutable resource.
type Coordinator struct {
	store      ThreadStore
	classifier *routing.Classifier
	aliases    *routing.AliasTable
	cfg        *models.RoutingConfig
	probe      routing.Probe
	maxRetries int
	retryDelay time.Duration
}

// NewCoordinator creates a coordinator. cfg may be nil (built-in
// defaults). maxRetries bounds append retries on transient store errors.
func NewCoordinator(store ThreadStore, classifier *routing.Classifier, aliases *routing.AliasTable, cfg *models.RoutingConfig, probe routing.Probe, maxRetries int, retryDelay time.Duration) *Coordinator {
	return &Coordinator{
		store:      store,
		classifier: classifier,
		aliases:    aliases,
		cfg:        cfg,
		probe:      probe,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// Run drives one invocation through NEW/RESUMING -> ROUTING ->
// PERSISTING -> DONE. The returned Result always carries the final state;
// on failure the error describes the originating condition.
func (c *Coordinator) Run(ctx context.Context, inv Invocation, caller ModelCaller) (*Result, error) {
	res := &Result{State: StateNew}

	var history []models.Turn
	threadID := inv.ThreadID
	createIfMissing := false

	if threadID == "" {
		// Allocate lazily: the thread only materializes in the store
		// once the first turn persists, so a failed invocation leaks
		// no empty thread.
		threadID = c.store.NewThreadID()
		createIfMissing = true
	} else {
		res.State = StateResuming
		thread, err := c.store.LoadThread(ctx, threadID)
		if err != nil {
			res.State = StateFailed
			return res, err
		}
		history = thread.Turns
	}
	res.ThreadID = threadID

	res.State = StateRouting
	category := c.classifier.Classify(inv.ToolName)
	category = routing.EffectiveCategory(inv.ToolName, category, c.cfg)
	prefs, err := routing.Resolve(inv.ToolName, category, c.cfg)
	if err != nil {
		res.State = StateFailed
		return res, err
	}
	model, err := routing.Select(ctx, prefs, c.aliases, c.probe)
	if err != nil {
		res.State = StateFailed
		return res, err
	}
	res.ModelUsed = model

	output, err := caller.Call(ctx, model, history, inv.Input)
	if err != nil {
		res.State = StateFailed
		return res, err
	}
	res.Output = output

	res.State = StatePersisting
	turn, err := models.NewTurn(inv.Input, output, model)
	if err != nil {
		res.State = StateFailed
		return res, err
	}
	seq, err := c.appendWithRetry(ctx, threadID, turn, createIfMissing)
	if err != nil {
		res.State = StateFailed
		return res, err
	}

	res.SequenceNumber = seq
	res.State = StateDone
	return res, nil
}

// appendWithRetry retries AppendTurn on transient store failures only.
// ErrThreadExpired propagates immediately: the caller should start a new
// thread, not hammer a dead one.
func (c *Coordinator) appendWithRetry(ctx context.Context, threadID string, turn *models.Turn, createIfMissing bool) (int64, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := util.Sleep(ctx, util.Backoff(c.retryDelay, attempt)); err != nil {
				return 0, err
			}
		}
		seq, err := c.store.AppendTurn(ctx, threadID, turn, createIfMissing)
		if err == nil {
			return seq, nil
		}
		if !errors.Is(err, ErrStoreUnavailable) {
			return 0, err
		}
		lastErr = err
	}
	return 0, lastErr
}
