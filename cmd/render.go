package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/session"
)

var (
	badgeBase = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	badges    = map[model.Category]lipgloss.Style{
		model.CategoryHot:  badgeBase.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")),
		model.CategoryWarm: badgeBase.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")),
		model.CategoryCold: badgeBase.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("12")),
	}
	unknownBadge = badgeBase.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))

	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// maxSnippet bounds the content preview shown per candidate.
const maxSnippet = 200

func categoryBadge(c model.Category) string {
	label := string(c)
	if label == "" {
		label = "UNRATED"
	}
	style, ok := badges[c]
	if !ok {
		style = unknownBadge
	}
	return style.Render(label)
}

func renderCandidates(w io.Writer, entries []session.Entry) {
	for i, e := range entries {
		line := fmt.Sprintf("%d. %s", i+1, titleStyle.Render(e.Candidate.DisplayTitle()))
		if e.Candidate.Score != nil {
			line += dimStyle.Render(fmt.Sprintf("  score %.2f", *e.Candidate.Score))
		}
		fmt.Fprintln(w, line)
		if e.Candidate.URL != "" {
			fmt.Fprintf(w, "   %s\n", e.Candidate.URL)
		}
		if snippet := snip(e.Candidate.Content, maxSnippet); snippet != "" {
			fmt.Fprintf(w, "   %s\n", dimStyle.Render(snippet))
		}
	}
}

func renderAnalysis(w io.Writer, label string, a *model.Analysis) {
	if a == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", categoryBadge(a.Category), titleStyle.Render(label))
	if a.Explanation != "" {
		fmt.Fprintf(w, "   %s\n", a.Explanation)
	}
	if a.OutreachMessage != "" {
		fmt.Fprintf(w, "   %s %s\n", dimStyle.Render("Suggested outreach:"), a.OutreachMessage)
	}
}

func renderEmail(w io.Writer, title, email string) {
	fmt.Fprintf(w, "%s\n%s\n\n", titleStyle.Render("Email for "+title), strings.TrimSpace(email))
}

func renderLeads(w io.Writer, leads []model.StoredLead) {
	if len(leads) == 0 {
		fmt.Fprintln(w, "No saved leads.")
		return
	}
	for _, l := range leads {
		r := export.Project(l)
		fmt.Fprintf(w, "#%s %s %s %s\n",
			r.ID,
			categoryBadge(model.Category(r.Category)),
			titleStyle.Render(model.Candidate{Title: r.Title}.DisplayTitle()),
			dimStyle.Render(r.Timestamp),
		)
		if r.URL != "" {
			fmt.Fprintf(w, "   %s\n", r.URL)
		}
	}
}

// renderError formats a command failure, listing each configuration problem
// on its own line.
func renderError(err error) string {
	var cfgErr *model.ConfigurationError
	if errors.As(err, &cfgErr) {
		var b strings.Builder
		b.WriteString(errStyle.Render("Configuration problems:"))
		for _, p := range cfgErr.Problems {
			b.WriteString("\n  - " + p)
		}
		return b.String()
	}
	return errStyle.Render("Error: ") + err.Error()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func snip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
