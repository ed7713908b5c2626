package srs

import (
	"math"
	"time"
)

// Params holds the tunable constants for the scheduler. The defaults are our
// own; callers that want different behavior override them through config.
type Params struct {
	// Learning-step ladder for new and relearning cards.
	LearningSteps []time.Duration

	// Seed intervals on graduation out of the step ladder, in days.
	GraduatingIntervalDays float64 // Good on the last step
	EasyIntervalDays       float64 // Easy anywhere in learning

	// Review interval growth.
	HardFactor      float64 // multiplier on Hard, < MinEase so Hard < Good
	EasyBonus       float64 // extra multiplier on Easy, > 1
	MinEase         float64 // ease at MaxDifficulty
	MaxEase         float64 // ease at MinDifficulty
	MinIntervalDays float64
	MaxIntervalDays float64

	// Difficulty adjustments.
	MinDifficulty          float64
	MaxDifficulty          float64
	LapseDifficultyPenalty float64
	HardDifficultyPenalty  float64
	EasyDifficultyBonus    float64

	// Stability model.
	InitialStability     float64
	InitialDifficulty    float64
	MinStability         float64
	LapseStabilityDecay  float64 // multiplier applied on a lapse, < 1
	HardStabilityFactor  float64 // scales stability growth on Hard, < 1
	EasyStabilityFactor  float64 // scales stability growth on Easy, > 1

	// Growth formula coefficients:
	// S' = S * (1 + k * A * D^(-B) * S^C * (e^(D'*(1-R)) - 1))
	// where k is the per-rating stability factor and R the desired retention.
	A                float64 // scales the overall memory increase
	B                float64 // difficulty exponent
	C                float64 // stability exponent
	D                float64 // retention effect scaler
	DesiredRetention float64 // target recall probability (e.g. 0.9)
}

// DefaultParams provides a set of sensible default parameters to start with.
func DefaultParams() *Params {
	return &Params{
		LearningSteps:          []time.Duration{time.Minute, 10 * time.Minute},
		GraduatingIntervalDays: 1,
		EasyIntervalDays:       4,

		HardFactor:      1.2,
		EasyBonus:       1.3,
		MinEase:         1.3,
		MaxEase:         2.5,
		MinIntervalDays: 1,
		MaxIntervalDays: 365,

		MinDifficulty:          1,
		MaxDifficulty:          10,
		LapseDifficultyPenalty: 1.0,
		HardDifficultyPenalty:  0.2,
		EasyDifficultyBonus:    0.3,

		InitialStability:    2.0,
		InitialDifficulty:   5.0,
		MinStability:        0.5,
		LapseStabilityDecay: 0.5,
		HardStabilityFactor: 0.5,
		EasyStabilityFactor: 1.5,

		A:                0.2,
		B:                0.5,
		C:                0.1,
		D:                4.0,
		DesiredRetention: 0.9,
	}
}

// ease maps difficulty onto the interval growth multiplier for a Good answer.
// The hardest cards grow at MinEase, the easiest at MaxEase.
func (p *Params) ease(difficulty float64) float64 {
	d := clamp(difficulty, p.MinDifficulty, p.MaxDifficulty)
	span := p.MaxDifficulty - p.MinDifficulty
	return p.MinEase + (p.MaxEase-p.MinEase)*(p.MaxDifficulty-d)/span
}

// growStability applies the core growth formula for a successful review.
// The factor argument scales the increase: <1 for Hard, 1 for Good, >1 for Easy.
func (p *Params) growStability(stability, difficulty, factor float64) float64 {
	if stability < 1 {
		stability = 1 // keep the pow terms well behaved
	}
	if difficulty < 1 {
		difficulty = 1
	}

	gain := p.A * math.Pow(difficulty, -p.B) * math.Pow(stability, p.C)
	multiplier := math.Exp(p.D*(1-p.DesiredRetention)) - 1

	return stability * (1 + factor*gain*multiplier)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
