package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/tetraminz/emotion_insights/internal/analysis"
	"github.com/tetraminz/emotion_insights/internal/emotion"
	"github.com/tetraminz/emotion_insights/internal/store"
)

const maxBodyBytes = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeBatchRequest struct {
	Texts []string `json:"texts"`
}

type analyzeResponse struct {
	Predictions       []emotion.Score          `json:"predictions"`
	DominantEmotion   emotion.Label            `json:"dominant_emotion"`
	Summary           string                   `json:"summary"`
	Insights          string                   `json:"insights"`
	SuggestedResponse string                   `json:"suggested_response"`
	InfluentialTokens []emotion.TokenInfluence `json:"influential_tokens,omitempty"`
}

type saveResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type trendsResponse struct {
	EmotionTrends any `json:"emotion_trends"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: welcomeMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: healthMessage})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if s.process == nil {
		writeJSONError(w, "analysis is not configured", http.StatusInternalServerError)
		return
	}
	result, err := s.process.Analyze(r.Context(), req.Text)
	s.writeAnalysis(w, r, result, err)
}

func (s *Server) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req analyzeBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if s.process == nil {
		writeJSONError(w, "analysis is not configured", http.StatusInternalServerError)
		return
	}
	result, err := s.process.AnalyzeBatch(r.Context(), req.Texts)
	s.writeAnalysis(w, r, result, err)
}

func (s *Server) writeAnalysis(w http.ResponseWriter, r *http.Request, result analysis.Result, err error) {
	if errors.Is(err, analysis.ErrEmptyText) {
		writeJSONError(w, "Text cannot be empty", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("[api] analyze failed request_id=%s: %v", RequestIDFrom(r.Context()), err)
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if result.Sections.Err != nil {
		log.Printf("[api] insight generation degraded request_id=%s: %v", RequestIDFrom(r.Context()), result.Sections.Err)
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		Predictions:       result.Predictions,
		DominantEmotion:   result.Dominant,
		Summary:           result.Sections.SummaryText(),
		Insights:          result.Sections.InsightsText(),
		SuggestedResponse: result.Sections.SuggestedResponseText(),
		InfluentialTokens: result.InfluentialTokens,
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req store.Submission
	if !decodeBody(w, r, &req) {
		return
	}
	if s.store == nil {
		writeJSONError(w, "storage is not configured", http.StatusInternalServerError)
		return
	}
	req.CreatedAt = nil

	id, err := s.store.Insert(r.Context(), req.Record())
	if errors.Is(err, store.ErrInvalidRecord) {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("[api] save failed request_id=%s: %v", RequestIDFrom(r.Context()), err)
		writeJSONError(w, fmt.Sprintf("Error saving results: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Message: savedMessage, ID: id})
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSONError(w, "storage is not configured", http.StatusInternalServerError)
		return
	}
	limit := store.DefaultListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.store.List(r.Context(), limit)
	if err != nil {
		log.Printf("[api] list results failed request_id=%s: %v", RequestIDFrom(r.Context()), err)
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSONError(w, "storage is not configured", http.StatusInternalServerError)
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSONError(w, "id must be an integer", http.StatusBadRequest)
		return
	}

	rec, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, store.ErrNotFound.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[api] get result failed request_id=%s: %v", RequestIDFrom(r.Context()), err)
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleTrends maps every aggregation failure, invalid ranges included, to 500.
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	if s.aggregator == nil {
		writeJSONError(w, "storage is not configured", http.StatusInternalServerError)
		return
	}
	q := r.URL.Query()
	buckets, err := s.aggregator.TrendsFromParams(
		r.Context(),
		q.Get("start_date"),
		q.Get("end_date"),
		q.Get("group_by"),
		q.Get("emotions"),
	)
	if err != nil {
		log.Printf("[api] emotion trends failed request_id=%s: %v", RequestIDFrom(r.Context()), err)
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, trendsResponse{EmotionTrends: buckets})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSONError(w, "request body too large or unreadable", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeJSONError(w, fmt.Sprintf("invalid JSON body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, errorResponse{Detail: message})
}
