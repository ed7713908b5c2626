// Package training builds study sessions and processes submitted answers.
package training

import "time"

// Session is a built study session. The card order is fixed at creation and
// never re-ranked; counts reflect the state of each card at build time.
type Session struct {
	ID              string
	CardIDs         []int64
	NewCount        int
	ReviewCount     int
	LearningCount   int
	CreatedAt       time.Time
	DurationMinutes int // advisory countdown for the client, never enforced
}

// Contains reports whether the card belongs to the session's fixed card list.
func (s *Session) Contains(cardID int64) bool {
	for _, id := range s.CardIDs {
		if id == cardID {
			return true
		}
	}
	return false
}
