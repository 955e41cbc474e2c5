package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/session"
)

// searchOptions are the search command flags.
type searchOptions struct {
	region    string
	summarize bool
	emails    []int
	allEmails bool
	classify  []int
	save      []int
	sender    string
	json      bool
}

var searchFlags searchOptions

var searchCmd = &cobra.Command{
	Use:   "search KEYWORD...",
	Short: "Find companies for a keyword and optional region",
	Long: `Searches for companies matching KEYWORD in REGION and lists them numbered from 1.
Use the numbers with --email, --classify and --save to act on individual results.`,
	Example: `  leadgen search steel exporters --region India --summarize
  leadgen search "solar installers" --region Kenya --email 1,2 --save 1`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx, "search", needs{search: true, llm: true})
		if err != nil {
			return err
		}
		defer e.Close()

		opts := searchFlags
		if opts.sender == "" {
			opts.sender = cfg.LLM.Sender
		}
		return runSearch(ctx, cmd.OutOrStdout(), session.New(e.Deps), strings.Join(args, " "), opts)
	},
}

// searchReport is the --json output of the search command.
type searchReport struct {
	Keyword  string                     `json:"keyword"`
	Region   string                     `json:"region,omitempty"`
	Results  []session.Entry            `json:"results"`
	Summary  string                     `json:"summary,omitempty"`
	Analyses map[string]*model.Analysis `json:"analyses,omitempty"`
	Emails   map[string]string          `json:"emails,omitempty"`
	Saved    []*model.StoredLead        `json:"saved,omitempty"`
	Failures []searchFailure            `json:"failures,omitempty"`
}

// searchFailure records one step that failed without stopping the run.
// Key is empty for the batch summary.
type searchFailure struct {
	Step  string `json:"step"`
	Key   string `json:"key,omitempty"`
	Title string `json:"title,omitempty"`
	Error string `json:"error"`
}

func runSearch(ctx context.Context, w io.Writer, sess *session.Session, keyword string, f searchOptions) error {
	out := sess.Search(ctx, keyword, f.region)
	if out.Err != nil {
		return out.Err
	}
	if out.NoResults {
		if f.json {
			return printJSON(w, searchReport{Keyword: out.Keyword, Region: out.Region, Results: []session.Entry{}})
		}
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	report := searchReport{
		Keyword:  out.Keyword,
		Region:   out.Region,
		Emails:   map[string]string{},
		Analyses: map[string]*model.Analysis{},
	}
	if !f.json {
		renderCandidates(w, out.Entries)
		fmt.Fprintln(w)
	}

	titles := map[model.CandidateKey]string{}
	for _, en := range out.Entries {
		titles[en.Key] = en.Candidate.DisplayTitle()
	}
	fail := func(step string, k model.CandidateKey, err error) {
		report.Failures = append(report.Failures, searchFailure{
			Step: step, Key: string(k), Title: titles[k], Error: err.Error(),
		})
	}

	if f.summarize {
		summary, err := sess.Summarize(ctx)
		if err != nil {
			fail("summarize", "", err)
		} else {
			report.Summary = summary.Markdown
			if !f.json {
				fmt.Fprintf(w, "%s\n%s\n\n", titleStyle.Render("Summary"), summary.Markdown)
			}
		}
	}

	classifyKeys, err := keysFor(out.Entries, f.classify)
	if err != nil {
		return err
	}
	for _, k := range classifyKeys {
		res := sess.Classify(ctx, k)
		if res.Err != nil {
			fail("classify", k, res.Err)
			continue
		}
		report.Analyses[string(k)] = res.Analysis
		if !f.json {
			renderAnalysis(w, titles[k], res.Analysis)
		}
	}

	emailIdx := f.emails
	if f.allEmails {
		emailIdx = allIndices(len(out.Entries))
	}
	emailKeys, err := keysFor(out.Entries, emailIdx)
	if err != nil {
		return err
	}
	for _, res := range sess.GenerateEmails(ctx, emailKeys, f.sender) {
		if res.Err != nil {
			fail("email", res.Key, res.Err)
			continue
		}
		report.Emails[string(res.Key)] = res.Email
		if !f.json {
			renderEmail(w, titles[res.Key], res.Email)
		}
	}

	saveKeys, err := keysFor(out.Entries, f.save)
	if err != nil {
		return err
	}
	for _, k := range saveKeys {
		res := sess.Save(ctx, k)
		if res.Err != nil {
			fail("save", k, res.Err)
			continue
		}
		report.Saved = append(report.Saved, res.Lead)
		if !f.json {
			fmt.Fprintf(w, "Saved %s as lead #%s\n", titles[k], res.Lead.ID)
		}
	}

	sortFailures(report.Failures, out.Entries)
	if f.json {
		report.Results = sess.Results()
		return printJSON(w, report)
	}
	for _, fl := range report.Failures {
		subject := fl.Title
		if subject == "" {
			subject = "summary"
		}
		fmt.Fprintf(w, "%s %s (%s): %s\n", errStyle.Render("Failed"), subject, fl.Step, fl.Error)
	}
	return nil
}

// sortFailures orders failures by result number, batch failures first.
// Failures for the same result keep the order their steps ran in.
func sortFailures(failures []searchFailure, entries []session.Entry) {
	pos := make(map[string]int, len(entries))
	for i, en := range entries {
		pos[string(en.Key)] = i
	}
	rank := func(fl searchFailure) int {
		if fl.Key == "" {
			return -1
		}
		return pos[fl.Key]
	}
	slices.SortStableFunc(failures, func(a, b searchFailure) int { return rank(a) - rank(b) })
}

// keysFor maps 1-based result numbers onto candidate keys.
func keysFor(entries []session.Entry, idx []int) ([]model.CandidateKey, error) {
	keys := make([]model.CandidateKey, 0, len(idx))
	for _, i := range idx {
		if i < 1 || i > len(entries) {
			return nil, model.NewValidationError("result", fmt.Sprintf("%d is out of range 1-%d", i, len(entries)))
		}
		keys = append(keys, entries[i-1].Key)
	}
	return keys, nil
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchFlags.region, "region", "r", "", "country or region to search in")
	f.BoolVar(&searchFlags.summarize, "summarize", false, "summarize all results in one report")
	f.IntSliceVar(&searchFlags.emails, "email", nil, "draft outreach emails for these result numbers")
	f.BoolVar(&searchFlags.allEmails, "all-emails", false, "draft outreach emails for every result")
	f.IntSliceVar(&searchFlags.classify, "classify", nil, "rate these result numbers HOT, WARM or COLD")
	f.IntSliceVar(&searchFlags.save, "save", nil, "save these result numbers as leads")
	f.StringVar(&searchFlags.sender, "sender", "", "name to sign outreach emails with (default llm.sender)")
	f.BoolVar(&searchFlags.json, "json", false, "print results as JSON")
	rootCmd.AddCommand(searchCmd)
}
