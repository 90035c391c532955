// ABOUTME: Serve command starts the MCP server over stdio
// ABOUTME: Enables LLM agents like Claude to use bridged tools
package commands

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/harper/modelbridge/internal/config"
	"github.com/harper/modelbridge/internal/conversation"
	"github.com/harper/modelbridge/internal/llm"
	"github.com/harper/modelbridge/internal/mcp"
	"github.com/harper/modelbridge/internal/routing"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start MCP server for LLM agents",
		Long: `Start the bridge as an MCP (Model Context Protocol) server on stdio.

Configure in Claude Desktop's config file to enable the bridged tools.`,
		RunE: runServe,
		Example: `  # Start MCP server (typically called by an MCP client)
  bridge serve

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "bridge": {
  #       "command": "bridge",
  #       "args": ["serve"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runServe starts the MCP server
func runServe(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !quiet {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	routingCfg, err := config.LoadRoutingConfig(cfg.RoutingConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load routing config: %w", err)
	}
	aliases, err := config.LoadAliases(cfg.AliasConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load alias config: %w", err)
	}

	store, err := conversation.NewRedisStore(cfg.RedisURL, cfg.ConversationTTL)
	if err != nil {
		return fmt.Errorf("failed to connect to conversation store: %w", err)
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
		return fmt.Errorf("failed to create provider client: %w", err)
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

	server := mcpserver.NewMCPServer("Model Bridge", "0.1.0")
	mcp.RegisterTools(server, coordinator, provider)

	if !quiet {
		log.Println("Model bridge MCP server starting on stdio...")
	}
	return mcpserver.ServeStdio(server)
}
