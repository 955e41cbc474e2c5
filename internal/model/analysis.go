package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Category is the lead temperature assigned by classification.
type Category string

const (
	CategoryHot  Category = "HOT"
	CategoryWarm Category = "WARM"
	CategoryCold Category = "COLD"
)

// ParseCategory accepts HOT, WARM or COLD in any case.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToUpper(strings.TrimSpace(s))); c {
	case CategoryHot, CategoryWarm, CategoryCold:
		return c, nil
	default:
		return "", eris.Errorf("unknown category %q", s)
	}
}

// Analysis is the classification-mode enrichment result.
type Analysis struct {
	Category        Category `json:"category"`
	Explanation     string   `json:"explanation"`
	OutreachMessage string   `json:"outreach_message"`
}

// Summary is the summarization-mode enrichment result covering a batch.
type Summary struct {
	Markdown string `json:"summary"`
}

// Outreach is a single personalized message, subject and body included.
type Outreach struct {
	Email string `json:"email"`
}
