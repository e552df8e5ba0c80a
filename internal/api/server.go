package api

import (
	"net/http"
	"strings"

	"github.com/rs/cors"

	"github.com/tetraminz/emotion_insights/internal/analysis"
	"github.com/tetraminz/emotion_insights/internal/store"
	"github.com/tetraminz/emotion_insights/internal/trends"
)

const DefaultAllowedOrigin = "http://localhost:5173"

const (
	welcomeMessage = "Welcome to the DeepPurple Emotion Detection API"
	healthMessage  = "Server is running and healthy"
	savedMessage   = "Results saved successfully"
)

// Options configures the HTTP surface. An empty JWTSecret leaves /save open.
type Options struct {
	AllowedOrigins []string
	JWTSecret      string
}

// Server wires analysis, storage and trend aggregation to HTTP handlers.
type Server struct {
	process    *analysis.Process
	store      store.Store
	aggregator *trends.Aggregator
	opts       Options
}

func NewServer(process *analysis.Process, st store.Store, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{DefaultAllowedOrigin}
	}
	opts.JWTSecret = strings.TrimSpace(opts.JWTSecret)

	s := &Server{process: process, store: st, opts: opts}
	if st != nil {
		s.aggregator = trends.NewAggregator(st)
	}
	return s
}

// Handler returns the full middleware chain around the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health-check", s.handleHealth)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /analyze-batch", s.handleAnalyzeBatch)

	save := http.HandlerFunc(s.handleSave)
	if s.opts.JWTSecret != "" {
		save = authMiddleware(s.opts.JWTSecret, save)
	}
	mux.Handle("POST /save", save)

	mux.HandleFunc("GET /results", s.handleListResults)
	mux.HandleFunc("GET /results/{id}", s.handleGetResult)
	mux.HandleFunc("GET /emotion-trends", s.handleTrends)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return requestID(accessLog(recoverer(c.Handler(mux))))
}
