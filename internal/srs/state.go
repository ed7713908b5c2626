package srs

import (
	"fmt"
	"time"
)

// State is the scheduling stage of a card.
type State int

const (
	StateNew      State = 0 // never answered
	StateLearning State = 1 // inside the short-interval step ladder
	StateReview   State = 2 // graduated to the long-term scheduler
)

var stateNames = map[State]string{
	StateNew:      "new",
	StateLearning: "learning",
	StateReview:   "review",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MemoryState holds the per-card scheduling state. All transitions go through
// Params.Answer; nothing else mutates it.
type MemoryState struct {
	CardID       int64
	State        State
	Step         int // learning-step index; -1 once graduated
	Stability    float64
	Difficulty   float64
	IntervalDays float64
	Due          time.Time // zero while State is new
	Repetitions  int
	Lapses       int
}

// NewMemoryState creates the initial state for a card that has never been
// studied. Due is left unset: a new card is eligible immediately.
func NewMemoryState(cardID int64, p *Params) MemoryState {
	return MemoryState{
		CardID:     cardID,
		State:      StateNew,
		Step:       0,
		Stability:  p.InitialStability,
		Difficulty: p.InitialDifficulty,
	}
}
