package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/domain"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/retention"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/srs"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/storage"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/training"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/vocab"
)

func newTestServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	params := srs.DefaultParams()
	srv := NewServer(
		db,
		training.NewBuilder(training.DefaultCaps()),
		training.NewOrchestrator(db, params),
		retention.NewEstimator(nil, 10),
		vocab.NewSyncer(db, params, t.TempDir()),
	)
	srv.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return srv, db
}

func seedWords(t *testing.T, db *storage.DB, count int) {
	t.Helper()
	ctx := context.Background()
	params := srs.DefaultParams()
	for i := 0; i < count; i++ {
		wordID, err := db.InsertWord(ctx, domain.Word{
			Hash:        fmt.Sprintf("hash-%d", i),
			Text:        fmt.Sprintf("palabra-%d", i),
			Translation: fmt.Sprintf("word-%d", i),
		}, 0)
		if err != nil {
			t.Fatalf("insert word: %v", err)
		}
		cardID, err := db.InsertCard(ctx, wordID, domain.CardTypeNormal)
		if err != nil {
			t.Fatalf("insert card: %v", err)
		}
		if err := db.InsertMemoryState(ctx, srs.NewMemoryState(cardID, params)); err != nil {
			t.Fatalf("insert state: %v", err)
		}
	}
}

func getJSON(t *testing.T, srv *Server, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("failed to decode %s response: %v", path, err)
		}
	}
	return rec
}

func postJSON(t *testing.T, srv *Server, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestStartSession(t *testing.T) {
	srv, db := newTestServer(t)
	seedWords(t, db, 3)

	var resp trainingSessionResponse
	rec := getJSON(t, srv, "/training/session/start", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp.SessionID == "" {
		t.Error("expected a session id")
	}
	if len(resp.Cards) != 3 || resp.NewCount != 3 {
		t.Errorf("expected 3 new cards, got %d cards, new_count=%d", len(resp.Cards), resp.NewCount)
	}
	if resp.Cards[0].WordText == "" || resp.Cards[0].WordTranslation == "" {
		t.Errorf("card payload incomplete: %+v", resp.Cards[0])
	}
	if resp.Cards[0].IsInLearningMode {
		t.Error("new cards must not report learning mode")
	}
}

func TestStartSessionEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	var resp trainingSessionResponse
	rec := getJSON(t, srv, "/training/session/start", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty session, got %d", rec.Code)
	}
	if len(resp.Cards) != 0 {
		t.Errorf("expected no cards, got %d", len(resp.Cards))
	}
}

func TestSubmitAnswerFlow(t *testing.T) {
	srv, db := newTestServer(t)
	seedWords(t, db, 1)

	var sess trainingSessionResponse
	getJSON(t, srv, "/training/session/start", &sess)
	if len(sess.Cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(sess.Cards))
	}
	cardID := sess.Cards[0].ID

	rec := postJSON(t, srv, "/training/answer", answerRequest{
		SessionID: sess.SessionID, CardID: cardID, Answer: 2, TimeSpent: 3.2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	t.Run("duplicate answer conflicts", func(t *testing.T) {
		rec := postJSON(t, srv, "/training/answer", answerRequest{
			SessionID: sess.SessionID, CardID: cardID, Answer: 0,
		})
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("invalid quality", func(t *testing.T) {
		rec := postJSON(t, srv, "/training/answer", answerRequest{
			SessionID: sess.SessionID, CardID: cardID, Answer: 9,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		rec := postJSON(t, srv, "/training/answer", answerRequest{
			SessionID: "missing", CardID: cardID, Answer: 2,
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("card outside session", func(t *testing.T) {
		rec := postJSON(t, srv, "/training/answer", answerRequest{
			SessionID: sess.SessionID, CardID: 9999, Answer: 2,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestForgettingCurveEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	var resp retention.Result
	rec := getJSON(t, srv, "/training/forgetting-curve", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty history, got %d", rec.Code)
	}
	if len(resp.Points) != 0 || resp.Summary.TotalReviews != 0 {
		t.Errorf("expected empty result, got %+v", resp)
	}
}

func TestForgettingCurveAfterAnswers(t *testing.T) {
	srv, db := newTestServer(t)
	seedWords(t, db, 2)

	var sess trainingSessionResponse
	getJSON(t, srv, "/training/session/start", &sess)
	for _, card := range sess.Cards {
		rec := postJSON(t, srv, "/training/answer", answerRequest{
			SessionID: sess.SessionID, CardID: card.ID, Answer: 2, TimeSpent: 2,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("answer failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	var resp retention.Result
	rec := getJSON(t, srv, "/training/forgetting-curve", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp.Summary.TotalReviews != 2 {
		t.Errorf("expected 2 reviews in summary, got %d", resp.Summary.TotalReviews)
	}
	if len(resp.TheoreticalCurve) == 0 {
		t.Error("expected a theoretical curve once history exists")
	}
}

func TestStats(t *testing.T) {
	srv, db := newTestServer(t)
	seedWords(t, db, 2)

	var counts storage.StateCounts
	rec := getJSON(t, srv, "/training/stats", &counts)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if counts.New != 2 {
		t.Errorf("expected 2 new cards, got %+v", counts)
	}
}

func TestSourceManagement(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postJSON(t, srv, "/sources", sourceRequest{Path: "https://example.com/words.git"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID   int64  `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Type != "git" {
		t.Errorf("expected git source type, got %q", created.Type)
	}

	var listed struct {
		Sources []storage.Source `json:"sources"`
	}
	rec = getJSON(t, srv, "/sources", &listed)
	if rec.Code != http.StatusOK || len(listed.Sources) != 1 {
		t.Fatalf("expected 1 source, got %d (status %d)", len(listed.Sources), rec.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/sources/%d", created.ID), nil)
	del := httptest.NewRecorder()
	srv.ServeHTTP(del, req)
	if del.Code != http.StatusOK {
		t.Errorf("expected 200 on delete, got %d", del.Code)
	}

	t.Run("empty path rejected", func(t *testing.T) {
		rec := postJSON(t, srv, "/sources", sourceRequest{Path: ""})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}
