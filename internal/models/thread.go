// ABOUTME: ConversationThread is a durable multi-turn conversation record
// ABOUTME: Threads are TTL-bounded and keyed by an opaque identifier
package models

import (
	"fmt"
	"time"
)

// ConversationThread holds the ordered turns of one conversation. The
// store owns durability; this struct is only an in-memory view during a
// single invocation and is never cached across invocations.
type ConversationThread struct {
	ThreadID     string    `json:"thread_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	Turns        []Turn    `json:"turns"`
}

// TurnCount returns the number of turns persisted so far.
func (t *ConversationThread) TurnCount() int {
	return len(t.Turns)
}

// Validate checks the ordering invariant: sequence numbers must be
// strictly increasing and gap-free starting at 1.
func (t *ConversationThread) Validate() error {
	for i, turn := range t.Turns {
		want := int64(i + 1)
		if turn.SequenceNumber != want {
			return fmt.Errorf("thread %s: turn at index %d has sequence %d, want %d",
				t.ThreadID, i, turn.SequenceNumber, want)
		}
	}
	return nil
}
