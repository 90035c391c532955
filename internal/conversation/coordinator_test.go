// ABOUTME: Tests for the continuation coordinator state machine
// ABOUTME: Covers new/resume flows, per-turn routing, and persist retries
package conversation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/harper/modelbridge/internal/models"
	"github.com/harper/modelbridge/internal/routing"
)

type fakeCaller struct {
	output     string
	err        error
	calls      int
	gotModel   string
	gotHistory []models.Turn
	gotInput   string
}

func (f *fakeCaller) Call(ctx context.Context, model string, history []models.Turn, input string) (string, error) {
	f.calls++
	f.gotModel = model
	f.gotHistory = history
	f.gotInput = input
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func allUsable(ctx context.Context, model string) bool { return true }

func newTestCoordinator(store ThreadStore, cfg *models.RoutingConfig, probe routing.Probe) *Coordinator {
	if probe == nil {
		probe = allUsable
	}
	return NewCoordinator(store, routing.NewClassifier(nil), routing.NewAliasTable(nil), cfg, probe, 2, time.Millisecond)
}

func TestCoordinatorNewThread(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	coord := newTestCoordinator(store, nil, nil)
	caller := &fakeCaller{output: "the answer"}

	res, err := coord.Run(context.Background(), Invocation{ToolName: "chat", Input: "question"}, caller)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.State != StateDone {
		t.Errorf("State = %s, want DONE", res.State)
	}
	if res.ThreadID == "" {
		t.Error("ThreadID not allocated")
	}
	if res.SequenceNumber != 1 {
		t.Errorf("SequenceNumber = %d, want 1", res.SequenceNumber)
	}
	if res.Output != "the answer" {
		t.Errorf("Output = %q", res.Output)
	}
	// chat is fast_response; the default tier's first alias resolves
	// to the fully qualified flash identifier
	if res.ModelUsed != "google/gemini-2.5-flash" {
		t.Errorf("ModelUsed = %q, want google/gemini-2.5-flash", res.ModelUsed)
	}
	if len(caller.gotHistory) != 0 {
		t.Errorf("new thread passed %d history turns, want 0", len(caller.gotHistory))
	}

	thread, err := store.LoadThread(context.Background(), res.ThreadID)
	if err != nil {
		t.Fatalf("LoadThread() error = %v", err)
	}
	if thread.Turns[0].ModelUsed != res.ModelUsed {
		t.Errorf("persisted model = %q, want %q", thread.Turns[0].ModelUsed, res.ModelUsed)
	}
}

func TestCoordinatorResumeReplaysHistory(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	coord := newTestCoordinator(store, nil, nil)
	ctx := context.Background()

	first, err := coord.Run(ctx, Invocation{ToolName: "chat", Input: "first question"}, &fakeCaller{output: "first answer"})
	if err != nil {
		t.Fatalf("Run(first) error = %v", err)
	}

	caller := &fakeCaller{output: "second answer"}
	second, err := coord.Run(ctx, Invocation{ToolName: "chat", Input: "followup", ThreadID: first.ThreadID}, caller)
	if err != nil {
		t.Fatalf("Run(second) error = %v", err)
	}

	if second.ThreadID != first.ThreadID {
		t.Errorf("resumed thread = %q, want %q", second.ThreadID, first.ThreadID)
	}
	if second.SequenceNumber != 2 {
		t.Errorf("SequenceNumber = %d, want 2", second.SequenceNumber)
	}
	if len(caller.gotHistory) != 1 {
		t.Fatalf("resume passed %d history turns, want 1", len(caller.gotHistory))
	}
	if caller.gotHistory[0].Input != "first question" || caller.gotHistory[0].Output != "first answer" {
		t.Errorf("history turn mismatch: %+v", caller.gotHistory[0])
	}
}

func TestCoordinatorResumeMissingThreadFails(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	coord := newTestCoordinator(store, nil, nil)
	ctx := context.Background()

	staleID := store.NewThreadID()
	res, err := coord.Run(ctx, Invocation{ToolName: "chat", Input: "hi", ThreadID: staleID}, &fakeCaller{output: "x"})
	if !errors.Is(err, ErrThreadNotFound) {
		t.Fatalf("Run() error = %v, want ErrThreadNotFound", err)
	}
	if res.State != StateFailed {
		t.Errorf("State = %s, want FAILED", res.State)
	}

	// Caller-level retry with the ID omitted starts a new thread with
	// a different identifier
	retry, err := coord.Run(ctx, Invocation{ToolName: "chat", Input: "hi"}, &fakeCaller{output: "x"})
	if err != nil {
		t.Fatalf("Run(retry) error = %v", err)
	}
	if retry.ThreadID == staleID {
		t.Error("retry reused the stale thread ID")
	}
}

func TestCoordinatorRoutesPerTurn(t *testing.T) {
	// A thread may switch tools (and hence models) between turns
	cfg := &models.RoutingConfig{
		Enabled: true,
		ToolOverrides: models.ToolOverrides{
			Enabled: true,
			Overrides: map[string]models.ToolOverride{
				"thinkdeep": {PreferredModels: models.ModelPreferenceList{"special/deep-model"}},
			},
		},
	}
	store := NewMemoryStore(time.Hour)
	coord := newTestCoordinator(store, cfg, nil)
	ctx := context.Background()

	first, err := coord.Run(ctx, Invocation{ToolName: "chat", Input: "q1"}, &fakeCaller{output: "a1"})
	if err != nil {
		t.Fatalf("Run(chat) error = %v", err)
	}
	second, err := coord.Run(ctx, Invocation{ToolName: "thinkdeep", Input: "q2", ThreadID: first.ThreadID}, &fakeCaller{output: "a2"})
	if err != nil {
		t.Fatalf("Run(thinkdeep) error = %v", err)
	}

	if second.ModelUsed != "special/deep-model" {
		t.Errorf("turn 2 model = %q, want tool override model", second.ModelUsed)
	}
	if first.ModelUsed == second.ModelUsed {
		t.Error("expected different models across turns")
	}

	thread, err := store.LoadThread(ctx, first.ThreadID)
	if err != nil {
		t.Fatalf("LoadThread() error = %v", err)
	}
	if thread.Turns[0].ModelUsed == thread.Turns[1].ModelUsed {
		t.Error("persisted turns should record the model each actually used")
	}
}

func TestCoordinatorCategoryOnlyOverrideReclassifies(t *testing.T) {
	// An override that names only a category moves the tool onto that
	// category's mapping without replacing the list itself
	cfg := &models.RoutingConfig{
		Enabled: true,
		Mappings: map[models.TaskCategory]models.CategoryMapping{
			models.ExtendedReasoning: {PreferredModels: models.ModelPreferenceList{"deep/reasoner"}},
		},
		ToolOverrides: models.ToolOverrides{
			Enabled: true,
			Overrides: map[string]models.ToolOverride{
				"chat": {Category: models.ExtendedReasoning},
			},
		},
	}
	store := NewMemoryStore(time.Hour)
	coord := newTestCoordinator(store, cfg, nil)

	res, err := coord.Run(context.Background(), Invocation{ToolName: "chat", Input: "hard question"}, &fakeCaller{output: "a"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ModelUsed != "deep/reasoner" {
		t.Errorf("ModelUsed = %q, want the reclassified category's model", res.ModelUsed)
	}
}

func TestCoordinatorNoCandidateModelLeaksNoThread(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	noneUsable := func(ctx context.Context, model string) bool { return false }
	coord := newTestCoordinator(store, nil, noneUsable)

	res, err := coord.Run(context.Background(), Invocation{ToolName: "chat", Input: "hi"}, &fakeCaller{output: "x"})
	if !errors.Is(err, routing.ErrNoCandidateModel) {
		t.Fatalf("Run() error = %v, want ErrNoCandidateModel", err)
	}
	if res.State != StateFailed {
		t.Errorf("State = %s, want FAILED", res.State)
	}

	// The lazily allocated thread must not have materialized
	if _, err := store.LoadThread(context.Background(), res.ThreadID); !errors.Is(err, ErrThreadNotFound) {
		t.Errorf("LoadThread() error = %v, want ErrThreadNotFound (no leaked thread)", err)
	}
}

func TestCoordinatorModelCallFailurePersistsNothing(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	coord := newTestCoordinator(store, nil, nil)
	caller := &fakeCaller{err: errors.New("model timed out")}

	res, err := coord.Run(context.Background(), Invocation{ToolName: "chat", Input: "hi"}, caller)
	if err == nil {
		t.Fatal("Run() expected error")
	}
	if res.State != StateFailed {
		t.Errorf("State = %s, want FAILED", res.State)
	}
	if _, err := store.LoadThread(context.Background(), res.ThreadID); !errors.Is(err, ErrThreadNotFound) {
		t.Errorf("LoadThread() error = %v, want ErrThreadNotFound (no partial turn)", err)
	}
}

// flakyStore fails AppendTurn a configured number of times before
// delegating to the wrapped store.
type flakyStore struct {
	ThreadStore
	failures  int
	appendErr error
	attempts  int
}

func (s *flakyStore) AppendTurn(ctx context.Context, threadID string, turn *models.Turn, createIfMissing bool) (int64, error) {
	s.attempts++
	if s.attempts <= s.failures {
		return 0, s.appendErr
	}
	return s.ThreadStore.AppendTurn(ctx, threadID, turn, createIfMissing)
}

func TestCoordinatorRetriesTransientStoreFailure(t *testing.T) {
	store := &flakyStore{
		ThreadStore: NewMemoryStore(time.Hour),
		failures:    2,
		appendErr:   fmt.Errorf("%w: connection reset", ErrStoreUnavailable),
	}
	coord := newTestCoordinator(store, nil, nil)

	res, err := coord.Run(context.Background(), Invocation{ToolName: "chat", Input: "hi"}, &fakeCaller{output: "saved"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.State != StateDone {
		t.Errorf("State = %s, want DONE", res.State)
	}
	if store.attempts != 3 {
		t.Errorf("append attempts = %d, want 3", store.attempts)
	}
}

func TestCoordinatorExhaustedRetriesKeepOutput(t *testing.T) {
	store := &flakyStore{
		ThreadStore: NewMemoryStore(time.Hour),
		failures:    100,
		appendErr:   fmt.Errorf("%w: connection reset", ErrStoreUnavailable),
	}
	coord := newTestCoordinator(store, nil, nil)

	res, err := coord.Run(context.Background(), Invocation{ToolName: "chat", Input: "hi"}, &fakeCaller{output: "precious"})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Run() error = %v, want ErrStoreUnavailable", err)
	}
	if res.State != StateFailed {
		t.Errorf("State = %s, want FAILED", res.State)
	}
	// maxRetries=2 means 3 attempts total
	if store.attempts != 3 {
		t.Errorf("append attempts = %d, want 3", store.attempts)
	}
	// The model output is reported, never silently dropped
	if res.Output != "precious" {
		t.Errorf("Output = %q, want it preserved on persist failure", res.Output)
	}
}

func TestCoordinatorDoesNotRetryExpiredThread(t *testing.T) {
	mem := NewMemoryStore(time.Hour)
	threadID := mem.NewThreadID()
	turn := mustTurn(t, "a", "b", "flash")
	if _, err := mem.AppendTurn(context.Background(), threadID, turn, true); err != nil {
		t.Fatalf("seed AppendTurn() error = %v", err)
	}

	// Thread vanishes between load and append
	store := &flakyStore{
		ThreadStore: mem,
		failures:    100,
		appendErr:   fmt.Errorf("%w: %s", ErrThreadExpired, threadID),
	}
	coord := newTestCoordinator(store, nil, nil)

	_, err := coord.Run(context.Background(), Invocation{ToolName: "chat", Input: "hi", ThreadID: threadID}, &fakeCaller{output: "x"})
	if !errors.Is(err, ErrThreadExpired) {
		t.Fatalf("Run() error = %v, want ErrThreadExpired", err)
	}
	if store.attempts != 1 {
		t.Errorf("append attempts = %d, want 1 (expiry is not retried)", store.attempts)
	}
}

func TestCoordinatorCancellationAbortsCleanly(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	coord := newTestCoordinator(store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	caller := &fakeCaller{output: "x"}
	cancel()

	res, err := coord.Run(ctx, Invocation{ToolName: "chat", Input: "hi"}, caller)
	if err == nil {
		t.Fatal("Run() expected error after cancellation")
	}
	if res.State != StateFailed {
		t.Errorf("State = %s, want FAILED", res.State)
	}
	if _, err := store.LoadThread(context.Background(), res.ThreadID); !errors.Is(err, ErrThreadNotFound) {
		t.Errorf("LoadThread() error = %v, want ErrThreadNotFound (nothing half-written)", err)
	}
}
