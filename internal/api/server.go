// Package api serves the lead workflow over HTTP. Each caller works in its
// own session, chosen by the X-Session-ID header.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/session"
)

// SessionHeader carries the session ID on requests and responses.
const SessionHeader = "X-Session-ID"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server routes HTTP requests onto sessions from a registry.
type Server struct {
	registry       *session.Registry
	allowedOrigins []string
	sender         string
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins sets the CORS allow list. Empty allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithSender sets the default sender name for outreach emails.
func WithSender(name string) Option {
	return func(s *Server) { s.sender = name }
}

// NewServer returns a Server backed by reg.
func NewServer(reg *session.Registry, opts ...Option) *Server {
	s := &Server{registry: reg}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", SessionHeader},
		ExposedHeaders: []string{SessionHeader},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Post("/search", s.handleSearch)
		r.Get("/results", s.handleResults)
		r.Post("/summary", s.handleSummary)
		r.Post("/emails", s.handleEmails)
		r.Route("/candidates/{key}", func(r chi.Router) {
			r.Post("/email", s.handleEmail)
			r.Post("/classify", s.handleClassify)
			r.Post("/save", s.handleSave)
		})
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/leads", s.handleListLeads)
		r.Delete("/leads", s.handleClearLeads)
	})

	return r
}

type sessionKey struct{}

// withSession resolves the caller's session, creating one when the header is
// missing or unknown, and echoes its ID.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, created := s.registry.GetOrCreate(r.Header.Get(SessionHeader))
		if created {
			zap.L().Debug("api: new session", zap.String("session", sess.ID()))
		}
		w.Header().Set(SessionHeader, sess.ID())
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
