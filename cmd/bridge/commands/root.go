// ABOUTME: Root command for the bridge CLI
// ABOUTME: Registers serve, check-config, and version subcommands
package commands

import (
	"github.com/spf13/cobra"
)

var quiet bool

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "MCP bridge that routes LLM tools to backend models",
		Long: `bridge exposes LLM tools (chat, thinkdeep, codereview, ...) over MCP,
routes each invocation to a backend model per operator policy, and keeps
multi-turn conversations durable across restarts via a Redis-compatible store.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress informational output")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewCheckConfigCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
