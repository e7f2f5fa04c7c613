package commands

import (
	"github.com/leapstack-labs/chainlint/internal/cli/config"
	"github.com/leapstack-labs/chainlint/internal/lsp"
	"github.com/spf13/cobra"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the LSP server for editor integration.

The server communicates over stdin/stdout using JSON-RPC and publishes
chainlint diagnostics for open Python documents. The configuration is
looked up from the client's workspace root (rootUri parameter) and
reloaded whenever a chainlint.yaml is saved.`,
		Example: `  # Start LSP server (usually called by an editor)
  chainlint lsp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLSP(cmd)
		},
	}

	return cmd
}

func runLSP(cmd *cobra.Command) error {
	logger := config.GetLogger(cmd.Context())
	server := lsp.NewServerWithLogger(cmd.InOrStdin(), cmd.OutOrStdout(), logger)
	return server.Run()
}
