// Package export writes stored leads to files and downstream systems.
package export

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Exporter writes leads to a destination and returns how many were written.
type Exporter interface {
	Export(ctx context.Context, leads []model.StoredLead) (int, error)
}

// Format names an export destination.
type Format string

const (
	FormatCSV        Format = "csv"
	FormatXLSX       Format = "xlsx"
	FormatNotion     Format = "notion"
	FormatSalesforce Format = "salesforce"
)

// Columns is the header shared by the tabular formats.
var Columns = []string{"id", "title", "url", "score", "category", "explanation", "outreach", "email", "source", "timestamp"}

// Row is the flat projection of a stored lead used by every exporter.
type Row struct {
	ID          string
	Title       string
	URL         string
	Score       *float64
	Category    string
	Explanation string
	Outreach    string
	Email       string
	Source      string
	Timestamp   string
}

// profileDetails picks the display fields out of a raw profile payload.
type profileDetails struct {
	FullName   string `json:"full_name"`
	Headline   string `json:"headline"`
	Occupation string `json:"occupation"`
	ProfileURL string `json:"public_profile_url"`
	Identifier string `json:"public_identifier"`
}

// Project flattens a stored lead. Details that do not decode still yield a
// row with the record metadata.
func Project(lead model.StoredLead) Row {
	row := Row{
		ID:        lead.ID,
		Email:     lead.Outreach,
		Source:    string(lead.Source),
		Timestamp: lead.Timestamp,
	}
	if lead.Analysis != nil {
		row.Category = string(lead.Analysis.Category)
		row.Explanation = lead.Analysis.Explanation
		row.Outreach = lead.Analysis.OutreachMessage
	}

	if c, err := lead.Candidate(); err == nil {
		row.Title, row.URL, row.Score = c.Title, c.URL, c.Score
	}
	if row.Title == "" {
		var p profileDetails
		if json.Unmarshal(lead.Details, &p) == nil {
			row.Title = firstNonEmpty(p.FullName, p.Occupation, p.Headline)
			if row.URL == "" {
				row.URL = p.ProfileURL
			}
			if row.URL == "" && p.Identifier != "" {
				row.URL = "https://www.linkedin.com/in/" + p.Identifier
			}
		}
	}
	return row
}

// Strings returns the row in Columns order.
func (r Row) Strings() []string {
	return []string{r.ID, r.Title, r.URL, r.ScoreString(), r.Category, r.Explanation, r.Outreach, r.Email, r.Source, r.Timestamp}
}

// ScoreString formats the score, or "" when absent.
func (r Row) ScoreString() string {
	if r.Score == nil {
		return ""
	}
	return strconv.FormatFloat(*r.Score, 'f', -1, 64)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
