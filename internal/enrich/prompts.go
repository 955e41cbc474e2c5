package enrich

import (
	"bytes"
	"os"
	"text/template"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Mode names an enrichment entry point.
type Mode string

const (
	ModeClassify  Mode = "classify"
	ModeSummarize Mode = "summarize"
	ModeOutreach  Mode = "outreach"
)

// Temperature returns the fixed decoding temperature for m.
func (m Mode) Temperature() float64 {
	if m == ModeOutreach {
		return 0.85
	}
	return 0.7
}

const defaultSystem = "You are a B2B sales research assistant. Be concise and factual; never invent details that are not in the data."

const defaultClassify = `Analyze the following profile data and categorize the lead as HOT, WARM, or COLD.
Also provide a brief explanation and a personalized outreach message.

Profile Data:
{{.Profile}}

Respond with only a JSON object in the following format:
{
    "category": "HOT/WARM/COLD",
    "explanation": "Brief explanation",
    "outreach_message": "Personalized message"
}`

const defaultSummarize = `Summarize the following {{.Count}} search results as potential business leads.
For each lead give the name, what they do and why they could be a good prospect.
Format the answer as markdown.

Results:
{{.Candidates}}`

const defaultOutreach = `Write a personalized outreach email to the lead below.
Include a subject line and a short body. Reference what the company does.
{{- if .Sender}}
Sign the email as: {{.Sender}}
{{- end}}

Lead:
{{.Candidate}}`

// Prompts holds the parsed templates for each mode.
type Prompts struct {
	System    string
	classify  *template.Template
	summarize *template.Template
	outreach  *template.Template
}

// PromptFile is the YAML layout of a prompt override file. Empty entries keep
// the built-in template.
type PromptFile struct {
	System    string `yaml:"system"`
	Classify  string `yaml:"classify"`
	Summarize string `yaml:"summarize"`
	Outreach  string `yaml:"outreach"`
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() *Prompts {
	p, err := NewPrompts(PromptFile{})
	if err != nil {
		panic(err)
	}
	return p
}

// NewPrompts parses f, falling back to the built-in template for each empty
// entry.
func NewPrompts(f PromptFile) (*Prompts, error) {
	pick := func(override, def string) string {
		if override != "" {
			return override
		}
		return def
	}

	p := &Prompts{System: pick(f.System, defaultSystem)}
	var err error
	if p.classify, err = template.New(string(ModeClassify)).Parse(pick(f.Classify, defaultClassify)); err != nil {
		return nil, eris.Wrap(err, "enrich: parse classify prompt")
	}
	if p.summarize, err = template.New(string(ModeSummarize)).Parse(pick(f.Summarize, defaultSummarize)); err != nil {
		return nil, eris.Wrap(err, "enrich: parse summarize prompt")
	}
	if p.outreach, err = template.New(string(ModeOutreach)).Parse(pick(f.Outreach, defaultOutreach)); err != nil {
		return nil, eris.Wrap(err, "enrich: parse outreach prompt")
	}
	return p, nil
}

// LoadPrompts reads a YAML prompt override file. An empty path returns the
// built-in prompts.
func LoadPrompts(path string) (*Prompts, error) {
	if path == "" {
		return DefaultPrompts(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: read prompts %s", path)
	}
	var f PromptFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "enrich: parse prompts file")
	}
	return NewPrompts(f)
}

func (p *Prompts) render(mode Mode, data any) (string, error) {
	var tmpl *template.Template
	switch mode {
	case ModeClassify:
		tmpl = p.classify
	case ModeSummarize:
		tmpl = p.summarize
	case ModeOutreach:
		tmpl = p.outreach
	default:
		return "", eris.Errorf("enrich: unknown mode %q", mode)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", eris.Wrapf(err, "enrich: render %s prompt", mode)
	}
	return buf.String(), nil
}
