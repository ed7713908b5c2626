package training

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/domain"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/srs"
)

// Store is the persistence the orchestrator needs. The storage package
// implements it; sessions and answered-card sets live in the database, so
// answer handling is stateless per request.
type Store interface {
	// FindSession returns the session and the set of card ids already
	// answered within it, or (nil, nil, nil) when the id is unknown.
	FindSession(ctx context.Context, id string) (*Session, map[int64]bool, error)

	// FindMemoryState returns the card's scheduling state, or (nil, nil)
	// when no state exists for the id.
	FindMemoryState(ctx context.Context, cardID int64) (*srs.MemoryState, error)

	// ApplyReview persists the updated state and appends the review log
	// entry in a single transaction: both land or neither does.
	ApplyReview(ctx context.Context, state srs.MemoryState, entry domain.ReviewLog) error
}

// Orchestrator validates submitted answers against their session and applies
// the scheduler update.
type Orchestrator struct {
	store  Store
	params *srs.Params
	now    func() time.Time
}

func NewOrchestrator(store Store, params *srs.Params) *Orchestrator {
	return &Orchestrator{store: store, params: params, now: time.Now}
}

// SubmitAnswer processes one answer for a card within a session. The session
// timer is advisory only: answers are never rejected for arriving late.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, sessionID string, cardID int64, quality srs.Quality, timeSpentSeconds float64) error {
	sess, answered, err := o.store.FindSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if sess == nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if !sess.Contains(cardID) {
		return fmt.Errorf("%w: card %d, session %s", ErrCardNotInSession, cardID, sessionID)
	}
	if answered[cardID] {
		slog.Warn("duplicate answer rejected", "session_id", sessionID, "card_id", cardID)
		return fmt.Errorf("%w: card %d, session %s", ErrDuplicateAnswer, cardID, sessionID)
	}

	state, err := o.store.FindMemoryState(ctx, cardID)
	if err != nil {
		return fmt.Errorf("load state for card %d: %w", cardID, err)
	}
	if state == nil {
		return fmt.Errorf("%w: %d", ErrCardNotFound, cardID)
	}

	now := o.now()
	next, review, err := o.params.Answer(*state, quality, now)
	if err != nil {
		return err
	}

	entry := domain.ReviewLog{
		CardID:             cardID,
		SessionID:          sessionID,
		AnsweredAt:         review.AnsweredAt,
		Quality:            int(review.Quality),
		TimeSpentSeconds:   timeSpentSeconds,
		IntervalDaysBefore: review.IntervalDaysBefore,
		IntervalDaysAfter:  review.IntervalDaysAfter,
	}
	if err := o.store.ApplyReview(ctx, next, entry); err != nil {
		return fmt.Errorf("apply review for card %d: %w", cardID, err)
	}
	return nil
}
