package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List, clear and export saved leads",
}

var leadsListJSON bool

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved leads in insertion order",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := initEnv(ctx, "leads", needs{})
		if err != nil {
			return err
		}
		defer e.Close()

		leads, err := e.Store.List(ctx)
		if err != nil {
			return err
		}
		if leadsListJSON {
			return printJSON(cmd.OutOrStdout(), leads)
		}
		renderLeads(cmd.OutOrStdout(), leads)
		return nil
	},
}

var leadsClearYes bool

var leadsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved lead",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !leadsClearYes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Delete all saved leads?") {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}

		ctx := cmd.Context()
		e, err := initEnv(ctx, "leads", needs{})
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.Store.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All leads deleted.")
		return nil
	},
}

var leadsExportFlags struct {
	format string
	out    string
}

var leadsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved leads to CSV, XLSX, Notion or Salesforce",
	Example: `  leadgen leads export --format csv > leads.csv
  leadgen leads export --format xlsx --out leads.xlsx
  leadgen leads export --format notion`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		format := export.Format(strings.ToLower(leadsExportFlags.format))
		e, err := initEnv(ctx, "export:"+string(format), needs{})
		if err != nil {
			return err
		}
		defer e.Close()

		leads, err := e.Store.List(ctx)
		if err != nil {
			return err
		}

		out := leadsExportFlags.out
		if format == export.FormatXLSX && out == "" {
			out = "leads.xlsx"
		}
		n, err := runExport(ctx, format, out, cmd.OutOrStdout(), leads)
		if err != nil {
			return err
		}
		zap.L().Info("export complete", zap.String("format", string(format)), zap.Int("written", n))
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d of %d leads to %s\n", n, len(leads), format)
		return nil
	},
}

// runExport builds the exporter for format and runs it. File formats write
// to out, or to stdout when out is empty.
func runExport(ctx context.Context, format export.Format, out string, stdout io.Writer, leads []model.StoredLead) (int, error) {
	switch format {
	case export.FormatCSV, export.FormatXLSX:
		w := stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return 0, eris.Wrapf(err, "create %s", out)
			}
			defer f.Close() //nolint:errcheck
			w = f
		}
		if format == export.FormatCSV {
			return export.NewCSV(w).Export(ctx, leads)
		}
		return export.NewXLSX(w).Export(ctx, leads)
	case export.FormatNotion:
		return export.NewNotion(newNotion(cfg), cfg.Notion.LeadDB).Export(ctx, leads)
	case export.FormatSalesforce:
		sf, err := newSalesforce(cfg)
		if err != nil {
			return 0, err
		}
		return export.NewSalesforce(sf).Export(ctx, leads)
	default:
		return 0, model.NewValidationError("format", fmt.Sprintf("unknown export format %q", format))
	}
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func init() {
	leadsListCmd.Flags().BoolVar(&leadsListJSON, "json", false, "print leads as JSON")
	leadsClearCmd.Flags().BoolVarP(&leadsClearYes, "yes", "y", false, "skip the confirmation prompt")
	leadsExportCmd.Flags().StringVarP(&leadsExportFlags.format, "format", "f", "csv", "csv, xlsx, notion or salesforce")
	leadsExportCmd.Flags().StringVarP(&leadsExportFlags.out, "out", "o", "", "output file for csv (default stdout) and xlsx (default leads.xlsx)")

	leadsCmd.AddCommand(leadsListCmd, leadsClearCmd, leadsExportCmd)
	rootCmd.AddCommand(leadsCmd)
}
