package export

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/salesforce"
)

// leadObject is the Salesforce sObject leads are exported to.
const leadObject = "Lead"

// SalesforceExporter inserts one Lead per record. Records whose website
// already matches a Lead are skipped.
type SalesforceExporter struct {
	client salesforce.Client
}

// NewSalesforce returns a SalesforceExporter.
func NewSalesforce(client salesforce.Client) *SalesforceExporter {
	return &SalesforceExporter{client: client}
}

func (e *SalesforceExporter) Export(ctx context.Context, leads []model.StoredLead) (int, error) {
	created := 0
	for _, lead := range leads {
		if ctx.Err() != nil {
			return created, eris.Wrap(ctx.Err(), "export: salesforce cancelled")
		}
		r := Project(lead)

		if r.URL != "" {
			existing, err := salesforce.FindLeadByWebsite(ctx, e.client, r.URL)
			if err != nil {
				return created, eris.Wrapf(err, "export: salesforce lookup for lead %s", lead.ID)
			}
			if existing != nil {
				zap.L().Debug("export: lead already in salesforce",
					zap.String("id", lead.ID),
					zap.String("sf_id", existing.ID),
				)
				continue
			}
		}

		id, err := e.client.InsertOne(ctx, leadObject, leadRecord(r))
		if err != nil {
			return created, eris.Wrapf(err, "export: salesforce insert for lead %s", lead.ID)
		}
		zap.L().Info("export: created salesforce lead", zap.String("id", lead.ID), zap.String("sf_id", id))
		created++
	}
	return created, nil
}

// leadRecord maps a row onto standard Lead fields. Company and LastName are
// required by Salesforce; the row title fills both when nothing better exists.
func leadRecord(r Row) map[string]any {
	company := model.Candidate{Title: r.Title}.DisplayTitle()
	rec := map[string]any{
		"Company":    company,
		"LastName":   company,
		"LeadSource": "Web",
	}
	if r.URL != "" {
		rec["Website"] = r.URL
		if host := hostOf(r.URL); host != "" {
			rec["Company"] = firstNonEmpty(r.Title, host)
		}
	}
	if rating := rating(r.Category); rating != "" {
		rec["Rating"] = rating
	}
	var desc []string
	if r.Explanation != "" {
		desc = append(desc, r.Explanation)
	}
	if r.Outreach != "" {
		desc = append(desc, r.Outreach)
	}
	if r.Email != "" {
		desc = append(desc, r.Email)
	}
	if len(desc) > 0 {
		rec["Description"] = strings.Join(desc, "\n\n")
	}
	return rec
}

// rating maps a lead category onto the Lead.Rating picklist.
func rating(category string) string {
	switch model.Category(category) {
	case model.CategoryHot:
		return "Hot"
	case model.CategoryWarm:
		return "Warm"
	case model.CategoryCold:
		return "Cold"
	default:
		return ""
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
