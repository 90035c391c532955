// ABOUTME: Error taxonomy for the conversation store and coordinator
// ABOUTME: Sentinel errors checked with errors.Is by the MCP handlers
package conversation

import "errors"

var (
	// ErrThreadNotFound - the thread ID has no record in the store,
	// either never created or already expired
	ErrThreadNotFound = errors.New("conversation thread not found")

	// ErrThreadExpired - the thread vanished between being handed out
	// and the append; callers start a new thread, never treat as fatal
	ErrThreadExpired = errors.New("conversation thread expired")

	// ErrStoreUnavailable - transient store I/O failure, retried with
	// bounded backoff before being surfaced
	ErrStoreUnavailable = errors.New("conversation store unavailable")
)
