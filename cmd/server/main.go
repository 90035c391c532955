// ABOUTME: Main entry point for the model bridge MCP server on stdio
// ABOUTME: Wires config, Redis thread store, provider client, and tools
package main

import (
	"log"

	"github.com/harper/modelbridge/internal/config"
	"github.com/harper/modelbridge/internal/conversation"
	"github.com/harper/modelbridge/internal/llm"
	"github.com/harper/modelbridge/internal/mcp"
	"github.com/harper/modelbridge/internal/routing"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

func main() {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// A missing policy file means built-in defaults; a malformed one is
	// a refusal to start.
	routingCfg, err := config.LoadRoutingConfig(cfg.RoutingConfigPath)
	if err != nil {
		log.Fatalf("Failed to load routing config: %v", err)
	}
	aliases, err := config.LoadAliases(cfg.AliasConfigPath)
	if err != nil {
		log.Fatalf("Failed to load alias config: %v", err)
	}

	store, err := conversation.NewRedisStore(cfg.RedisURL, cfg.ConversationTTL)
	if err != nil {
		log.Fatalf("Failed to connect to conversation store: %v", err)
	}
	defer store.Close()

	provider, err := llm.NewClient(&llm.ClientConfig{
		APIKey:     cfg.ProviderAPIKey,
		BaseURL:    cfg.ProviderBaseURL,
		Timeout:    cfg.ProviderTimeout,
		MaxRetries: cfg.ProviderMaxRetries,
		RetryDelay: cfg.ProviderRetryDelay,
	})
	if err != nil {
		log.Fatalf("Failed to create provider client: %v", err)
	}

	coordinator := conversation.NewCoordinator(
		store,
		routing.NewClassifier(nil),
		routing.NewAliasTable(aliases),
		routingCfg,
		provider.Probe,
		cfg.StoreMaxRetries,
		cfg.StoreRetryDelay,
	)

	server := mcpserver.NewMCPServer(
		"Model Bridge",
		"0.1.0",
	)

	mcp.RegisterTools(server, coordinator, provider)

	log.Println("Model bridge MCP server starting on stdio...")
	if err := mcpserver.ServeStdio(server); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
