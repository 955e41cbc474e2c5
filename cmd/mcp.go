package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/mcpserver"
	"github.com/sells-group/leadgen-cli/internal/session"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server on stdin/stdout",
	Long:  "Exposes search, summarize, outreach, classify and save as MCP tools for an assistant. Logs go to stderr.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx, "mcp", needs{search: true, profile: true, llm: true})
		if err != nil {
			return err
		}
		defer e.Close()

		return mcpserver.Run(ctx, mcpserver.New(session.New(e.Deps), version, cfg.LLM.Sender))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
