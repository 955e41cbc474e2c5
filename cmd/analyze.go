package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/session"
)

var analyzeFlags struct {
	noSave bool
	json   bool
}

var analyzeCmd = &cobra.Command{
	Use:     "analyze PROFILE_URL",
	Short:   "Fetch a LinkedIn profile, classify it and save it as a lead",
	Example: "  leadgen analyze https://www.linkedin.com/in/someone --no-save",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx, "analyze", needs{profile: true, llm: true})
		if err != nil {
			return err
		}
		defer e.Close()

		out := session.New(e.Deps).Analyze(ctx, args[0], !analyzeFlags.noSave)
		if out.Err != nil {
			return out.Err
		}

		w := cmd.OutOrStdout()
		if analyzeFlags.json {
			return printJSON(w, map[string]any{
				"profile_url": out.ProfileURL,
				"analysis":    out.Analysis,
				"lead":        out.Lead,
			})
		}
		renderAnalysis(w, out.ProfileURL, out.Analysis)
		if out.Lead != nil {
			fmt.Fprintf(w, "Saved as lead #%s\n", out.Lead.ID)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeFlags.noSave, "no-save", false, "classify without saving")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.json, "json", false, "print the result as JSON")
	rootCmd.AddCommand(analyzeCmd)
}
