package training

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/srs"
)

// Caps bound the composition of a single session.
type Caps struct {
	MaxSession int // total cards per session
	MaxNew     int // new cards per session
	MaxReview  int // due review cards per session
}

// DefaultCaps returns the session limits used when config does not override them.
func DefaultCaps() Caps {
	return Caps{MaxSession: 20, MaxNew: 10, MaxReview: 100}
}

// Builder selects the working set for a study session.
type Builder struct {
	caps Caps
}

func NewBuilder(caps Caps) *Builder {
	if caps.MaxSession <= 0 {
		caps.MaxSession = DefaultCaps().MaxSession
	}
	if caps.MaxNew <= 0 {
		caps.MaxNew = DefaultCaps().MaxNew
	}
	if caps.MaxReview <= 0 {
		caps.MaxReview = DefaultCaps().MaxReview
	}
	return &Builder{caps: caps}
}

// Build picks cards from the candidate states in priority order: due learning
// cards first, then due review cards oldest-first, then new cards up to the
// new-card cap. Ties inside a bucket break on card id so sessions are
// reproducible. A limit <= 0 falls back to the configured session cap.
// An empty selection is a valid (empty) session, not an error.
func (b *Builder) Build(states []srs.MemoryState, now time.Time, limit int) Session {
	if limit <= 0 || limit > b.caps.MaxSession {
		limit = b.caps.MaxSession
	}

	var learning, review, fresh []srs.MemoryState
	for _, st := range states {
		switch {
		case st.State == srs.StateLearning && !st.Due.After(now):
			learning = append(learning, st)
		case st.State == srs.StateReview && !st.Due.After(now):
			review = append(review, st)
		case st.State == srs.StateNew:
			fresh = append(fresh, st)
		}
	}

	byDueThenID := func(set []srs.MemoryState) {
		sort.Slice(set, func(i, j int) bool {
			if !set[i].Due.Equal(set[j].Due) {
				return set[i].Due.Before(set[j].Due)
			}
			return set[i].CardID < set[j].CardID
		})
	}
	byDueThenID(learning)
	byDueThenID(review)
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].CardID < fresh[j].CardID })

	if len(review) > b.caps.MaxReview {
		review = review[:b.caps.MaxReview]
	}
	if len(fresh) > b.caps.MaxNew {
		fresh = fresh[:b.caps.MaxNew]
	}

	sess := Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
	}
	take := func(set []srs.MemoryState, counter *int) {
		for _, st := range set {
			if len(sess.CardIDs) >= limit {
				return
			}
			sess.CardIDs = append(sess.CardIDs, st.CardID)
			*counter++
		}
	}
	take(learning, &sess.LearningCount)
	take(review, &sess.ReviewCount)
	take(fresh, &sess.NewCount)

	return sess
}
