package export

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/notion"
)

// Notion property names written by NotionExporter. The target database must
// define them with matching types.
const (
	PropName        = "Name"
	PropURL         = "URL"
	PropScore       = "Score"
	PropCategory    = "Category"
	PropExplanation = "Explanation"
	PropOutreach    = "Outreach"
	PropLeadID      = notion.LeadIDProperty
	PropSavedAt     = "Saved At"
)

// maxRichText is Notion's per-segment text limit.
const maxRichText = 2000

// NotionExporter creates one page per lead in a Notion database. Leads whose
// ID already appears in the database are skipped.
type NotionExporter struct {
	client notion.Client
	dbID   string
}

// NewNotion returns a NotionExporter for the database dbID.
func NewNotion(client notion.Client, dbID string) *NotionExporter {
	return &NotionExporter{client: client, dbID: dbID}
}

func (e *NotionExporter) Export(ctx context.Context, leads []model.StoredLead) (int, error) {
	seen, err := e.client.LeadIDs(ctx, e.dbID)
	if err != nil {
		return 0, eris.Wrap(err, "export: notion existing leads")
	}

	created := 0
	for _, lead := range leads {
		if ctx.Err() != nil {
			return created, eris.Wrap(ctx.Err(), "export: notion cancelled")
		}
		if seen[lead.ID] {
			zap.L().Debug("export: lead already in notion", zap.String("id", lead.ID))
			continue
		}

		if _, err := e.client.CreateLeadPage(ctx, e.dbID, pageProperties(Project(lead))); err != nil {
			return created, eris.Wrapf(err, "export: create notion page for lead %s", lead.ID)
		}
		seen[lead.ID] = true
		created++
	}
	return created, nil
}

func pageProperties(r Row) notionapi.Properties {
	props := notionapi.Properties{
		PropName: notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: notion.Text(clip(model.Candidate{Title: r.Title}.DisplayTitle())),
		},
		PropLeadID: notion.LeadID(r.ID),
	}
	if r.URL != "" {
		props[PropURL] = notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: r.URL}
	}
	if r.Score != nil {
		props[PropScore] = notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: *r.Score}
	}
	if r.Category != "" {
		props[PropCategory] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: r.Category},
		}
	}
	if r.Explanation != "" {
		props[PropExplanation] = notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: notion.Text(clip(r.Explanation)),
		}
	}
	// A drafted email supersedes the short suggestion from classification.
	if outreach := firstNonEmpty(r.Email, r.Outreach); outreach != "" {
		props[PropOutreach] = notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: notion.Text(clip(outreach)),
		}
	}
	if ts, err := time.Parse(time.RFC3339Nano, r.Timestamp); err == nil {
		d := notionapi.Date(ts)
		props[PropSavedAt] = notionapi.DateProperty{
			Type: notionapi.PropertyTypeDate,
			Date: &notionapi.DateObject{Start: &d},
		}
	}
	return props
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= maxRichText {
		return s
	}
	return string(r[:maxRichText])
}
