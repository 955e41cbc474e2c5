// Package mcpserver exposes the lead workflow as MCP tools so an assistant
// can search, enrich and save leads on the operator's behalf.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/session"
)

const serverName = "leadgen"

type handlers struct {
	sess   *session.Session
	sender string
}

// New returns an MCP server whose tools all act on sess. sender is the
// default sign-off for outreach emails.
func New(sess *session.Session, version, sender string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, &mcp.ServerOptions{
		Instructions: "Search for companies with search_leads, then summarize, draft outreach or save candidates by key.",
	})
	h := &handlers{sess: sess, sender: sender}

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_leads",
		Description: "Search the web for companies matching a keyword and optional region. Replaces the current results.",
	}, h.search)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "summarize_leads",
		Description: "Summarize every company in the current results in one Markdown report.",
	}, h.summarize)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "compose_outreach",
		Description: "Draft a personalized outreach email for one candidate from the current results.",
	}, h.composeOutreach)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "classify_lead",
		Description: "Rate one candidate HOT, WARM or COLD with an explanation.",
	}, h.classify)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "save_lead",
		Description: "Save one candidate, with its classification if any, to the lead store.",
	}, h.save)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "analyze_profile",
		Description: "Fetch a LinkedIn profile, classify it and optionally save it as a lead.",
	}, h.analyze)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_leads",
		Description: "List every saved lead.",
	}, h.listLeads)

	return srv
}

// Run serves srv over stdin/stdout until the client disconnects or ctx ends.
func Run(ctx context.Context, srv *mcp.Server) error {
	zap.L().Info("mcp: serving on stdio")
	return srv.Run(ctx, &mcp.StdioTransport{})
}

type searchInput struct {
	Keyword string `json:"keyword" jsonschema:"industry or product keyword, e.g. steel exporters"`
	Region  string `json:"region,omitempty" jsonschema:"optional country or region"`
}

type candidateOutput struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	URL     string   `json:"url,omitempty"`
	Content string   `json:"content,omitempty"`
	Score   *float64 `json:"score,omitempty"`
}

type searchOutput struct {
	Keyword   string            `json:"keyword"`
	Region    string            `json:"region,omitempty"`
	NoResults bool              `json:"no_results"`
	Results   []candidateOutput `json:"results"`
}

func (h *handlers) search(ctx context.Context, _ *mcp.CallToolRequest, in searchInput) (*mcp.CallToolResult, searchOutput, error) {
	out := h.sess.Search(ctx, in.Keyword, in.Region)
	if out.Err != nil {
		return nil, searchOutput{}, out.Err
	}
	res := searchOutput{
		Keyword:   out.Keyword,
		Region:    out.Region,
		NoResults: out.NoResults,
		Results:   make([]candidateOutput, 0, len(out.Entries)),
	}
	for _, e := range out.Entries {
		res.Results = append(res.Results, candidateOutput{
			Key:     string(e.Key),
			Title:   e.Candidate.DisplayTitle(),
			URL:     e.Candidate.URL,
			Content: e.Candidate.Content,
			Score:   e.Candidate.Score,
		})
	}
	return nil, res, nil
}

type summaryOutput struct {
	Summary string `json:"summary"`
}

func (h *handlers) summarize(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, summaryOutput, error) {
	s, err := h.sess.Summarize(ctx)
	if err != nil {
		return nil, summaryOutput{}, err
	}
	return nil, summaryOutput{Summary: s.Markdown}, nil
}

type keyInput struct {
	Key string `json:"key" jsonschema:"candidate key from search_leads"`
}

type outreachInput struct {
	Key    string `json:"key" jsonschema:"candidate key from search_leads"`
	Sender string `json:"sender,omitempty" jsonschema:"name to sign the email with"`
}

type outreachOutput struct {
	Key   string `json:"key"`
	Email string `json:"email"`
}

func (h *handlers) composeOutreach(ctx context.Context, _ *mcp.CallToolRequest, in outreachInput) (*mcp.CallToolResult, outreachOutput, error) {
	sender := in.Sender
	if sender == "" {
		sender = h.sender
	}
	out := h.sess.GenerateEmail(ctx, model.CandidateKey(in.Key), sender)
	if out.Err != nil {
		return nil, outreachOutput{}, out.Err
	}
	return nil, outreachOutput{Key: string(out.Key), Email: out.Email}, nil
}

type analysisOutput struct {
	Category        string `json:"category"`
	Explanation     string `json:"explanation"`
	OutreachMessage string `json:"outreach_message"`
}

func analysisOf(a *model.Analysis) analysisOutput {
	if a == nil {
		return analysisOutput{}
	}
	return analysisOutput{Category: string(a.Category), Explanation: a.Explanation, OutreachMessage: a.OutreachMessage}
}

func (h *handlers) classify(ctx context.Context, _ *mcp.CallToolRequest, in keyInput) (*mcp.CallToolResult, analysisOutput, error) {
	out := h.sess.Classify(ctx, model.CandidateKey(in.Key))
	if out.Err != nil {
		return nil, analysisOutput{}, out.Err
	}
	return nil, analysisOf(out.Analysis), nil
}

type savedOutput struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
}

func (h *handlers) save(ctx context.Context, _ *mcp.CallToolRequest, in keyInput) (*mcp.CallToolResult, savedOutput, error) {
	out := h.sess.Save(ctx, model.CandidateKey(in.Key))
	if out.Err != nil {
		return nil, savedOutput{}, out.Err
	}
	return nil, savedOutput{ID: out.Lead.ID, Timestamp: out.Lead.Timestamp}, nil
}

type analyzeInput struct {
	URL  string `json:"url" jsonschema:"LinkedIn profile URL"`
	Save *bool  `json:"save,omitempty" jsonschema:"store the profile and analysis as a lead (default true)"`
}

type analyzeOutput struct {
	Category        string `json:"category"`
	Explanation     string `json:"explanation"`
	OutreachMessage string `json:"outreach_message"`
	LeadID          string `json:"lead_id,omitempty"`
}

func (h *handlers) analyze(ctx context.Context, _ *mcp.CallToolRequest, in analyzeInput) (*mcp.CallToolResult, analyzeOutput, error) {
	save := in.Save == nil || *in.Save
	out := h.sess.Analyze(ctx, in.URL, save)
	if out.Err != nil {
		return nil, analyzeOutput{}, out.Err
	}
	a := analysisOf(out.Analysis)
	res := analyzeOutput{Category: a.Category, Explanation: a.Explanation, OutreachMessage: a.OutreachMessage}
	if out.Lead != nil {
		res.LeadID = out.Lead.ID
	}
	return nil, res, nil
}

type leadOutput struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url,omitempty"`
	Score       *float64 `json:"score,omitempty"`
	Category    string   `json:"category,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Email       string   `json:"email,omitempty"`
	Source      string   `json:"source,omitempty"`
	Timestamp   string   `json:"timestamp"`
}

type listOutput struct {
	Leads []leadOutput `json:"leads"`
}

func (h *handlers) listLeads(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, listOutput, error) {
	leads, err := h.sess.Leads(ctx)
	if err != nil {
		return nil, listOutput{}, err
	}
	res := listOutput{Leads: make([]leadOutput, 0, len(leads))}
	for _, l := range leads {
		r := export.Project(l)
		res.Leads = append(res.Leads, leadOutput{
			ID:          r.ID,
			Title:       model.Candidate{Title: r.Title}.DisplayTitle(),
			URL:         r.URL,
			Score:       r.Score,
			Category:    r.Category,
			Explanation: r.Explanation,
			Email:       r.Email,
			Source:      r.Source,
			Timestamp:   r.Timestamp,
		})
	}
	return nil, res, nil
}
