// ABOUTME: MCP tool handler implementations for the model bridge
// ABOUTME: Maps coordinator results and the error taxonomy to tool responses
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harper/modelbridge/internal/conversation"
	"github.com/harper/modelbridge/internal/routing"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Handlers dispatches tool invocations to the continuation coordinator.
type Handlers struct {
	coordinator *conversation.Coordinator
	caller      conversation.ModelCaller
}

// handlerFor returns the handler function for one named tool. All tools
// share the same invocation flow; the tool name drives routing.
func (h *Handlers) handlerFor(toolName string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		prompt, err := request.RequireString("prompt")
		if err != nil {
			return mcp.NewToolResultError("prompt argument is required and must be a string"), nil
		}

		input := prompt
		if focus := request.GetString("focus", ""); focus != "" {
			input = fmt.Sprintf("Focus: %s\n\n%s", focus, prompt)
		}

		inv := conversation.Invocation{
			ToolName: toolName,
			Input:    input,
			ThreadID: request.GetString("continuation_id", ""),
		}

		result, err := h.coordinator.Run(ctx, inv, h.caller)
		if err != nil {
			return toolError(err), nil
		}

		response := map[string]interface{}{
			"content":         result.Output,
			"model_used":      result.ModelUsed,
			"continuation_id": result.ThreadID,
			"turn_number":     result.SequenceNumber,
		}

		responseJSON, err := json.Marshal(response)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
		}

		return mcp.NewToolResultText(string(responseJSON)), nil
	}
}

// toolError maps the core taxonomy to user-facing tool errors. Routing
// failures are surfaced verbatim; a vanished thread tells the user to
// start over instead of retrying internally.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, conversation.ErrThreadNotFound),
		errors.Is(err, conversation.ErrThreadExpired):
		return mcp.NewToolResultError("conversation expired, please start a new one (omit continuation_id)")
	case errors.Is(err, routing.ErrNoCandidateModel),
		errors.Is(err, routing.ErrEmptyPreferenceList):
		return mcp.NewToolResultError(fmt.Sprintf("model selection failed: %v", err))
	case errors.Is(err, conversation.ErrStoreUnavailable):
		return mcp.NewToolResultError(fmt.Sprintf("conversation store unavailable, response was not saved: %v", err))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("invocation failed: %v", err))
	}
}
