package enrich

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// analysisFields are the keys a classification completion must carry.
var analysisFields = []string{"category", "explanation", "outreach_message"}

// cleanJSON strips markdown fences and extracts the first JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	if obj, ok := firstObject(text); ok {
		return obj
	}
	return strings.TrimSpace(text)
}

// firstObject returns the first balanced {...} in s, skipping braces inside
// JSON strings.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// decodeAnalysis strictly decodes a classification completion. Unknown keys,
// missing or empty fields and unrecognized categories are all rejected.
func decodeAnalysis(raw string) (*model.Analysis, error) {
	fail := func(err error) (*model.Analysis, error) {
		return nil, &model.MalformedCompletionError{Mode: string(ModeClassify), Raw: raw, Err: err}
	}

	var wire struct {
		Category        *string `json:"category"`
		Explanation     *string `json:"explanation"`
		OutreachMessage *string `json:"outreach_message"`
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(cleanJSON(raw))))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return fail(eris.Wrap(err, "decode analysis"))
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fail(eris.New("trailing data after analysis object"))
	}

	values := []*string{wire.Category, wire.Explanation, wire.OutreachMessage}
	for i, v := range values {
		if v == nil || strings.TrimSpace(*v) == "" {
			return fail(eris.Errorf("missing field %q", analysisFields[i]))
		}
	}

	cat, err := model.ParseCategory(*wire.Category)
	if err != nil {
		return fail(err)
	}
	return &model.Analysis{
		Category:        cat,
		Explanation:     strings.TrimSpace(*wire.Explanation),
		OutreachMessage: strings.TrimSpace(*wire.OutreachMessage),
	}, nil
}
