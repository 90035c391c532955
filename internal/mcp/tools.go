// ABOUTME: MCP tool definitions and registration for the model bridge
// ABOUTME: Every tool takes a prompt plus an optional continuation_id
package mcp

import (
	"github.com/harper/modelbridge/internal/conversation"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// toolDef describes one bridged LLM tool.
type toolDef struct {
	name        string
	description string
	extra       map[string]interface{}
}

var bridgedTools = []toolDef{
	{
		name:        "chat",
		description: "General conversation with the routed model. Fast-response tier by default.",
	},
	{
		name:        "thinkdeep",
		description: "Extended reasoning on a hard problem. Routed to the strongest available model.",
	},
	{
		name:        "codereview",
		description: "Review code for correctness, style, and security issues.",
		extra: map[string]interface{}{
			"focus": map[string]interface{}{
				"type":        "string",
				"description": "Optional review focus, e.g. 'security' or 'performance'",
			},
		},
	},
	{
		name:        "analyze",
		description: "Analyze files, architecture, or data and summarize findings.",
	},
	{
		name:        "debug",
		description: "Diagnose an error or unexpected behavior from logs and context.",
	},
	{
		name:        "precommit",
		description: "Validate a pending change set before committing.",
	},
}

// RegisterTools registers all bridged tools with the MCP server.
func RegisterTools(server *mcpserver.MCPServer, coordinator *conversation.Coordinator, caller conversation.ModelCaller) *Handlers {
	handlers := &Handlers{
		coordinator: coordinator,
		caller:      caller,
	}

	for _, def := range bridgedTools {
		properties := map[string]interface{}{
			"prompt": map[string]interface{}{
				"type":        "string",
				"description": "The request to send to the model",
			},
			"continuation_id": map[string]interface{}{
				"type":        "string",
				"description": "Thread ID from a previous response to continue that conversation",
			},
		}
		for key, prop := range def.extra {
			properties[key] = prop
		}

		server.AddTool(mcp.Tool{
			Name:        def.name,
			Description: def.description,
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: properties,
				Required:   []string{"prompt"},
			},
		}, handlers.handlerFor(def.name))
	}

	return handlers
}
