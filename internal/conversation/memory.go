// ABOUTME: In-memory ThreadStore for tests and store-less development
// ABOUTME: Mirrors the Redis store's semantics including lazy TTL expiry
package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harper/modelbridge/internal/models"
)

type memoryThread struct {
	createdAt    time.Time
	lastActiveAt time.Time
	expiresAt    time.Time
	turns        []models.Turn
}

// MemoryStore implements ThreadStore with an in-process map. It exists
// for coordinator tests and single-process development; production
// deployments use the Redis store so multiple instances share state.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	threads map[string]*memoryThread
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		threads: make(map[string]*memoryThread),
		now:     time.Now,
	}
}

// NewThreadID returns a fresh 128-bit random identifier.
func (s *MemoryStore) NewThreadID() string {
	return uuid.NewString()
}

// AppendTurn appends under the store lock, matching the atomicity the
// Redis script provides.
func (s *MemoryStore) AppendTurn(ctx context.Context, threadID string, turn *models.Turn, createIfMissing bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.reapLocked(now)

	thread, ok := s.threads[threadID]
	if !ok {
		if !createIfMissing {
			return 0, fmt.Errorf("%w: %s", ErrThreadExpired, threadID)
		}
		thread = &memoryThread{createdAt: now}
		s.threads[threadID] = thread
	}

	seq := int64(len(thread.turns)) + 1
	stored := *turn
	stored.SequenceNumber = seq
	thread.turns = append(thread.turns, stored)
	thread.lastActiveAt = now
	thread.expiresAt = now.Add(s.ttl)

	turn.SequenceNumber = seq
	return seq, nil
}

// LoadThread returns a copy of the thread so callers cannot mutate
// stored state.
func (s *MemoryStore) LoadThread(ctx context.Context, threadID string) (*models.ConversationThread, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reapLocked(s.now())
	thread, ok := s.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}

	turns := make([]models.Turn, len(thread.turns))
	copy(turns, thread.turns)
	return &models.ConversationThread{
		ThreadID:     threadID,
		CreatedAt:    thread.createdAt,
		LastActiveAt: thread.lastActiveAt,
		Turns:        turns,
	}, nil
}

// TurnCount reports the number of turns stored for a thread.
func (s *MemoryStore) TurnCount(ctx context.Context, threadID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reapLocked(s.now())
	thread, ok := s.threads[threadID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	return int64(len(thread.turns)), nil
}

// EvictThread deletes a thread immediately.
func (s *MemoryStore) EvictThread(ctx context.Context, threadID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, threadID)
	return nil
}

// SetClock overrides the store's clock. Tests use it to simulate TTL
// expiry without sleeping.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) reapLocked(now time.Time) {
	for id, thread := range s.threads {
		if now.After(thread.expiresAt) {
			delete(s.threads, id)
		}
	}
}
