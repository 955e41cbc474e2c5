package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/session"
)

type searchRequest struct {
	Keyword string `json:"keyword"`
	Region  string `json:"region"`
}

type resultsResponse struct {
	SessionID string          `json:"session_id"`
	State     string          `json:"state"`
	Keyword   string          `json:"keyword,omitempty"`
	Region    string          `json:"region,omitempty"`
	NoResults bool            `json:"no_results"`
	Results   []session.Entry `json:"results"`
}

type emailRequest struct {
	Sender string `json:"sender"`
}

type emailsRequest struct {
	Keys   []model.CandidateKey `json:"keys"`
	Sender string               `json:"sender"`
}

type emailResponse struct {
	Key   model.CandidateKey `json:"key"`
	Email string             `json:"email,omitempty"`
	Error string             `json:"error,omitempty"`
}

type analyzeRequest struct {
	URL  string `json:"url"`
	Save *bool  `json:"save"`
}

type analyzeResponse struct {
	ProfileURL string            `json:"profile_url"`
	Profile    json.RawMessage   `json:"profile,omitempty"`
	Analysis   *model.Analysis   `json:"analysis,omitempty"`
	Lead       *model.StoredLead `json:"lead,omitempty"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess := sessionFrom(r.Context())
	out := sess.Search(r.Context(), req.Keyword, req.Region)
	if out.Err != nil {
		writeError(w, out.Err)
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse{
		SessionID: sess.ID(),
		State:     sess.State().String(),
		Keyword:   out.Keyword,
		Region:    out.Region,
		NoResults: out.NoResults,
		Results:   out.Entries,
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	entries := sess.Results()
	writeJSON(w, http.StatusOK, resultsResponse{
		SessionID: sess.ID(),
		State:     sess.State().String(),
		NoResults: sess.State() == session.ResultsReady && len(entries) == 0,
		Results:   entries,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := sessionFrom(r.Context()).Summarize(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	out := sessionFrom(r.Context()).GenerateEmail(r.Context(), candidateKey(r), s.senderOr(req.Sender))
	if out.Err != nil {
		writeError(w, out.Err)
		return
	}
	writeJSON(w, http.StatusOK, emailResponse{Key: out.Key, Email: out.Email})
}

func (s *Server) handleEmails(w http.ResponseWriter, r *http.Request) {
	var req emailsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Keys) == 0 {
		writeError(w, model.NewValidationError("keys", "must not be empty"))
		return
	}
	outcomes := sessionFrom(r.Context()).GenerateEmails(r.Context(), req.Keys, s.senderOr(req.Sender))
	resp := make([]emailResponse, len(outcomes))
	for i, o := range outcomes {
		resp[i] = emailResponse{Key: o.Key, Email: o.Email}
		if o.Err != nil {
			resp[i].Error = o.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"emails": resp})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	out := sessionFrom(r.Context()).Classify(r.Context(), candidateKey(r))
	if out.Err != nil {
		writeError(w, out.Err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": out.Key, "analysis": out.Analysis})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	out := sessionFrom(r.Context()).Save(r.Context(), candidateKey(r))
	if out.Err != nil {
		writeError(w, out.Err)
		return
	}
	writeJSON(w, http.StatusCreated, out.Lead)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	save := req.Save == nil || *req.Save
	out := sessionFrom(r.Context()).Analyze(r.Context(), req.URL, save)
	if out.Err != nil {
		writeError(w, out.Err)
		return
	}
	status := http.StatusOK
	if out.Lead != nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, analyzeResponse{
		ProfileURL: out.ProfileURL,
		Profile:    out.Profile,
		Analysis:   out.Analysis,
		Lead:       out.Lead,
	})
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := sessionFrom(r.Context()).Leads(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if leads == nil {
		leads = []model.StoredLead{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

func (s *Server) handleClearLeads(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r.Context()).Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) senderOr(sender string) string {
	if v := strings.TrimSpace(sender); v != "" {
		return v
	}
	return s.sender
}

func candidateKey(r *http.Request) model.CandidateKey {
	return model.CandidateKey(chi.URLParam(r, "key"))
}
