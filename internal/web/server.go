// Package web exposes the training API over HTTP with JSON payloads.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/domain"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/retention"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/srs"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/storage"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/training"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/vocab"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	db        *storage.DB
	router    *http.ServeMux
	builder   *training.Builder
	orch      *training.Orchestrator
	estimator *retention.Estimator
	syncer    *vocab.Syncer
	now       func() time.Time
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, builder *training.Builder, orch *training.Orchestrator, estimator *retention.Estimator, syncer *vocab.Syncer) *Server {
	s := &Server{
		db:        db,
		router:    http.NewServeMux(),
		builder:   builder,
		orch:      orch,
		estimator: estimator,
		syncer:    syncer,
		now:       time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealth())

	s.router.HandleFunc("/training/session/start", s.handleStartSession())
	s.router.HandleFunc("/training/answer", s.handleSubmitAnswer())
	s.router.HandleFunc("/training/forgetting-curve", s.handleForgettingCurve())
	s.router.HandleFunc("/training/stats", s.handleStats())

	s.router.HandleFunc("/sources", s.handleSources())
	s.router.HandleFunc("/sources/", s.handleDeleteSource())
	s.router.HandleFunc("/sync", s.handlePostSync())
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// trainingSessionResponse is the payload for a freshly built session.
type trainingSessionResponse struct {
	SessionID       string                `json:"session_id"`
	Cards           []domain.CardListItem `json:"cards"`
	NewCount        int                   `json:"new_count"`
	ReviewCount     int                   `json:"review_count"`
	LearningCount   int                   `json:"learning_count"`
	DurationMinutes int                   `json:"duration_minutes,omitempty"`
}

// handleStartSession builds a session and hands the client its card queue.
// An empty card list means the user is up to date; it is not an error.
func (s *Server) handleStartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		categoryID, err := queryInt64(r, "category_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		limit64, err := queryInt64(r, "limit")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		duration64, err := queryInt64(r, "duration_minutes")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid duration_minutes")
			return
		}

		states, err := s.db.ListStates(r.Context(), categoryID)
		if err != nil {
			slog.Error("failed to list card states", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		sess := s.builder.Build(states, s.now(), int(limit64))
		sess.DurationMinutes = int(duration64)

		if err := s.db.SaveSession(r.Context(), sess); err != nil {
			slog.Error("failed to save session", "session_id", sess.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		cards, err := s.db.ListCardItems(r.Context(), sess.CardIDs)
		if err != nil {
			slog.Error("failed to resolve session cards", "session_id", sess.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, trainingSessionResponse{
			SessionID:       sess.ID,
			Cards:           cards,
			NewCount:        sess.NewCount,
			ReviewCount:     sess.ReviewCount,
			LearningCount:   sess.LearningCount,
			DurationMinutes: sess.DurationMinutes,
		})
	}
}

type answerRequest struct {
	SessionID string  `json:"session_id"`
	CardID    int64   `json:"card_id"`
	Answer    int     `json:"answer"`
	TimeSpent float64 `json:"time_spent"`
}

func (s *Server) handleSubmitAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req answerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		err := s.orch.SubmitAnswer(r.Context(), req.SessionID, req.CardID, srs.Quality(req.Answer), req.TimeSpent)
		if err != nil {
			writeAnswerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"accepted": true})
	}
}

// writeAnswerError maps the orchestrator's error taxonomy to status codes.
func writeAnswerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, srs.ErrInvalidQuality):
		writeError(w, http.StatusBadRequest, "answer must be between 0 and 3")
	case errors.Is(err, training.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, training.ErrCardNotFound):
		writeError(w, http.StatusNotFound, "card not found")
	case errors.Is(err, training.ErrCardNotInSession):
		writeError(w, http.StatusBadRequest, "card does not belong to session")
	case errors.Is(err, training.ErrDuplicateAnswer):
		writeError(w, http.StatusConflict, "card already answered in this session")
	default:
		slog.Error("failed to process answer", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) handleForgettingCurve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		logs, err := s.db.ListReviewLogs(r.Context())
		if err != nil {
			slog.Error("failed to list review logs", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		stabilities, err := s.db.ListStabilities(r.Context())
		if err != nil {
			slog.Error("failed to list stabilities", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		result := s.estimator.Estimate(logs, stabilities)
		if result.Points == nil {
			result.Points = []retention.Point{}
		}
		if result.TheoreticalCurve == nil {
			result.TheoreticalCurve = []retention.CurvePoint{}
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		counts, err := s.db.CountStates(r.Context(), s.now())
		if err != nil {
			slog.Error("failed to count card states", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}

type sourceRequest struct {
	Path string `json:"path"`
}

// handleSources handles both GET and POST for vocabulary sources.
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleGetSources(w, r)
		case http.MethodPost:
			s.handlePostSource(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.GetAllSources(r.Context())
	if err != nil {
		slog.Error("failed to get sources", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if sources == nil {
		sources = []storage.Source{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (s *Server) handlePostSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "path cannot be empty")
		return
	}

	sourceType := "local"
	if vocab.IsGitSource(req.Path) {
		sourceType = "git"
	}

	id, err := s.db.InsertSource(r.Context(), req.Path, sourceType)
	if err != nil {
		slog.Error("failed to insert source", "path", req.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add source")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "path": req.Path, "type": sourceType})
}

func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		idStr := r.URL.Path[len("/sources/"):]
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid source id")
			return
		}

		if err := s.db.DeleteSource(r.Context(), id); err != nil {
			slog.Error("failed to delete source", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete source")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

// handlePostSync triggers a manual sync of all word sources.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		// Run in the foreground to make the caller wait for the result.
		if err := s.syncer.RunSync(r.Context()); err != nil {
			slog.Error("sync failed", "error", err)
			writeError(w, http.StatusInternalServerError, "sync failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"synced": true})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func queryInt64(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
