package srs

import (
	"fmt"
	"time"
)

// Review is the outcome of one processed answer, ready to be persisted as a
// review log entry alongside the updated memory state.
type Review struct {
	Quality            Quality
	AnsweredAt         time.Time
	IntervalDaysBefore float64
	IntervalDaysAfter  float64
}

// Answer computes the next memory state for an answered card. It is pure with
// respect to its inputs: the same (state, quality, now) always produces the
// same result, and the input state is not mutated.
func (p *Params) Answer(state MemoryState, quality Quality, now time.Time) (MemoryState, Review, error) {
	if !quality.Valid() {
		return MemoryState{}, Review{}, fmt.Errorf("%w: got %d", ErrInvalidQuality, int(quality))
	}

	before := state.IntervalDays
	next := state

	switch state.State {
	case StateNew, StateLearning:
		p.answerLearning(&next, quality, now)
	case StateReview:
		p.answerReview(&next, quality, now)
	default:
		return MemoryState{}, Review{}, fmt.Errorf("%w: %d", ErrInvalidState, int(state.State))
	}

	review := Review{
		Quality:            quality,
		AnsweredAt:         now,
		IntervalDaysBefore: before,
		IntervalDaysAfter:  next.IntervalDays,
	}
	return next, review, nil
}

// answerLearning advances a card through the learning-step ladder.
func (p *Params) answerLearning(s *MemoryState, quality Quality, now time.Time) {
	s.State = StateLearning
	steps := p.LearningSteps

	if quality == Easy {
		// Easy skips the remaining steps and graduates with the longer seed.
		p.graduate(s, p.EasyIntervalDays, now)
		return
	}

	if len(steps) == 0 {
		if quality == Good {
			p.graduate(s, p.GraduatingIntervalDays, now)
			return
		}
		p.holdAtStep(s, time.Minute, now)
		return
	}

	switch quality {
	case Again:
		s.Step = 0
		p.holdAtStep(s, steps[0], now)
	case Hard:
		if s.Step >= len(steps) {
			s.Step = len(steps) - 1
		}
		p.holdAtStep(s, steps[s.Step], now)
	case Good:
		next := s.Step + 1
		if next >= len(steps) {
			p.graduate(s, p.GraduatingIntervalDays, now)
			return
		}
		s.Step = next
		p.holdAtStep(s, steps[next], now)
	}
}

// answerReview applies the long-term update rule to a graduated card.
func (p *Params) answerReview(s *MemoryState, quality Quality, now time.Time) {
	switch quality {
	case Again:
		// Lapse: demote back into the step ladder for relearning.
		s.Lapses++
		s.Repetitions = 0
		s.Difficulty = clamp(s.Difficulty+p.LapseDifficultyPenalty, p.MinDifficulty, p.MaxDifficulty)
		s.Stability = clamp(s.Stability*p.LapseStabilityDecay, p.MinStability, s.Stability)
		s.State = StateLearning
		s.Step = 0
		delay := time.Minute
		if len(p.LearningSteps) > 0 {
			delay = p.LearningSteps[0]
		}
		p.holdAtStep(s, delay, now)

	case Hard:
		s.Repetitions++
		s.Difficulty = clamp(s.Difficulty+p.HardDifficultyPenalty, p.MinDifficulty, p.MaxDifficulty)
		s.Stability = p.growStability(s.Stability, s.Difficulty, p.HardStabilityFactor)
		p.reschedule(s, s.IntervalDays*p.HardFactor, now)

	case Good:
		s.Repetitions++
		s.Stability = p.growStability(s.Stability, s.Difficulty, 1.0)
		p.reschedule(s, s.IntervalDays*p.ease(s.Difficulty), now)

	case Easy:
		s.Repetitions++
		s.Difficulty = clamp(s.Difficulty-p.EasyDifficultyBonus, p.MinDifficulty, p.MaxDifficulty)
		s.Stability = p.growStability(s.Stability, s.Difficulty, p.EasyStabilityFactor)
		p.reschedule(s, s.IntervalDays*p.ease(s.Difficulty)*p.EasyBonus, now)
	}
}

// graduate moves a card out of the step ladder into the review cycle.
func (p *Params) graduate(s *MemoryState, intervalDays float64, now time.Time) {
	s.State = StateReview
	s.Step = -1
	s.Repetitions = 1
	p.reschedule(s, intervalDays, now)
}

// holdAtStep schedules the next look at a learning card after a short delay.
// The interval is tracked in fractional days so review logs stay comparable.
func (p *Params) holdAtStep(s *MemoryState, delay time.Duration, now time.Time) {
	s.IntervalDays = delay.Hours() / 24
	s.Due = now.Add(delay)
}

// reschedule clamps and applies a review interval measured in days.
func (p *Params) reschedule(s *MemoryState, intervalDays float64, now time.Time) {
	intervalDays = clamp(intervalDays, p.MinIntervalDays, p.MaxIntervalDays)
	s.IntervalDays = intervalDays
	s.Due = now.Add(time.Duration(intervalDays * 24 * float64(time.Hour)))
}
