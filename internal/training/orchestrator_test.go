package training

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/domain"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/srs"
)

// fakeStore keeps sessions and states in maps, mirroring the storage contract.
type fakeStore struct {
	sessions map[string]*Session
	answered map[string]map[int64]bool
	states   map[int64]srs.MemoryState
	logs     []domain.ReviewLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]*Session),
		answered: make(map[string]map[int64]bool),
		states:   make(map[int64]srs.MemoryState),
	}
}

func (f *fakeStore) FindSession(_ context.Context, id string) (*Session, map[int64]bool, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return nil, nil, nil
	}
	return sess, f.answered[id], nil
}

func (f *fakeStore) FindMemoryState(_ context.Context, cardID int64) (*srs.MemoryState, error) {
	st, ok := f.states[cardID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (f *fakeStore) ApplyReview(_ context.Context, state srs.MemoryState, entry domain.ReviewLog) error {
	f.states[state.CardID] = state
	f.logs = append(f.logs, entry)
	if f.answered[entry.SessionID] == nil {
		f.answered[entry.SessionID] = make(map[int64]bool)
	}
	f.answered[entry.SessionID][entry.CardID] = true
	return nil
}

func testOrchestrator(t *testing.T) (*Orchestrator, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	params := srs.DefaultParams()

	store.sessions["sess-1"] = &Session{ID: "sess-1", CardIDs: []int64{1, 2}}
	store.states[1] = srs.NewMemoryState(1, params)
	store.states[2] = srs.MemoryState{
		CardID: 2, State: srs.StateReview, Step: -1,
		Stability: 4, Difficulty: 5, IntervalDays: 10, Repetitions: 2,
	}

	o := NewOrchestrator(store, params)
	o.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return o, store
}

func TestSubmitAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("updates state and appends exactly one log entry", func(t *testing.T) {
		o, store := testOrchestrator(t)

		if err := o.SubmitAnswer(ctx, "sess-1", 2, srs.Good, 4.5); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.logs) != 1 {
			t.Fatalf("expected 1 log entry, got %d", len(store.logs))
		}
		entry := store.logs[0]
		if entry.CardID != 2 || entry.SessionID != "sess-1" || entry.Quality != int(srs.Good) {
			t.Errorf("log entry wrong: %+v", entry)
		}
		if entry.TimeSpentSeconds != 4.5 {
			t.Errorf("expected time spent 4.5, got %v", entry.TimeSpentSeconds)
		}
		if entry.IntervalDaysBefore != 10 {
			t.Errorf("expected interval before 10, got %v", entry.IntervalDaysBefore)
		}
		if store.states[2].Repetitions != 3 {
			t.Errorf("expected repetitions 3, got %d", store.states[2].Repetitions)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		o, _ := testOrchestrator(t)
		err := o.SubmitAnswer(ctx, "nope", 1, srs.Good, 1)
		if !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("card outside the session", func(t *testing.T) {
		o, _ := testOrchestrator(t)
		err := o.SubmitAnswer(ctx, "sess-1", 99, srs.Good, 1)
		if !errors.Is(err, ErrCardNotInSession) {
			t.Errorf("expected ErrCardNotInSession, got %v", err)
		}
	})

	t.Run("card without memory state", func(t *testing.T) {
		o, store := testOrchestrator(t)
		delete(store.states, 1)
		err := o.SubmitAnswer(ctx, "sess-1", 1, srs.Good, 1)
		if !errors.Is(err, ErrCardNotFound) {
			t.Errorf("expected ErrCardNotFound, got %v", err)
		}
	})

	t.Run("invalid quality leaves no trace", func(t *testing.T) {
		o, store := testOrchestrator(t)
		err := o.SubmitAnswer(ctx, "sess-1", 1, srs.Quality(7), 1)
		if !errors.Is(err, srs.ErrInvalidQuality) {
			t.Errorf("expected ErrInvalidQuality, got %v", err)
		}
		if len(store.logs) != 0 {
			t.Errorf("expected no log entries after rejection, got %d", len(store.logs))
		}
	})

	t.Run("second answer for the same card is rejected", func(t *testing.T) {
		o, store := testOrchestrator(t)

		if err := o.SubmitAnswer(ctx, "sess-1", 2, srs.Good, 2); err != nil {
			t.Fatalf("first submit: %v", err)
		}
		after := store.states[2]

		err := o.SubmitAnswer(ctx, "sess-1", 2, srs.Again, 2)
		if !errors.Is(err, ErrDuplicateAnswer) {
			t.Fatalf("expected ErrDuplicateAnswer, got %v", err)
		}
		if store.states[2] != after {
			t.Errorf("state changed by rejected duplicate: %+v != %+v", store.states[2], after)
		}
		if len(store.logs) != 1 {
			t.Errorf("expected log unchanged after duplicate, got %d entries", len(store.logs))
		}
	})
}
