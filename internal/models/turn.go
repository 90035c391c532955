// ABOUTME: Turn represents a single request/response exchange within a thread
// ABOUTME: Core data structure persisted by the conversation store
package models

import (
	"errors"
	"strings"
	"time"
)

// Turn is one exchange in a conversation thread, tagged with the model
// identifier that actually produced the output.
type Turn struct {
	SequenceNumber int64     `json:"sequence_number"`
	Timestamp      time.Time `json:"timestamp"`
	Input          string    `json:"input"`
	Output         string    `json:"output"`
	ModelUsed      string    `json:"model_used"`
}

// NewTurn creates a new Turn with validation. The sequence number is
// assigned by the store at append time, never by the caller.
func NewTurn(input, output, modelUsed string) (*Turn, error) {
	if strings.TrimSpace(input) == "" {
		return nil, errors.New("turn input cannot be empty")
	}
	if strings.TrimSpace(modelUsed) == "" {
		return nil, errors.New("turn model identifier cannot be empty")
	}
	return &Turn{
		Timestamp: time.Now().UTC(),
		Input:     input,
		Output:    output,
		ModelUsed: modelUsed,
	}, nil
}
