// Package retention derives forgetting-curve analytics from the review log.
package retention

import (
	"fmt"
	"math"

	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/domain"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/srs"
)

// Point is an observed retention bucket: how often cards reviewed after
// roughly IntervalDays were still recalled.
type Point struct {
	IntervalDays  int     `json:"interval_days"`
	RetentionRate float64 `json:"retention_rate"`
	TotalCards    int     `json:"total_cards"`
	Successful    int     `json:"successful"`
	Label         string  `json:"label"`
}

// CurvePoint is one sample of the theoretical forgetting curve.
type CurvePoint struct {
	Day       int     `json:"day"`
	Retention float64 `json:"retention"`
}

// Summary aggregates the whole review history.
type Summary struct {
	TotalReviews     int     `json:"total_reviews"`
	AvgRetention     float64 `json:"avg_retention"`
	CurrentStability float64 `json:"current_stability"`
}

// Result is the full forgetting-curve payload.
type Result struct {
	Points           []Point      `json:"points"`
	TheoreticalCurve []CurvePoint `json:"theoretical_curve"`
	Summary          Summary      `json:"summary"`
}

// A review log entry joins a bucket of day d when its prior interval lies
// within d +/- bucketTolerance*d.
const bucketTolerance = 0.4

// DefaultBuckets are the day offsets the analytics page charts.
var DefaultBuckets = []int{1, 3, 7, 14, 30, 60, 90}

// Estimator computes the forgetting curve and observed retention buckets.
type Estimator struct {
	buckets            []int
	referenceStability float64 // fallback when no cards exist yet
}

// NewEstimator creates an estimator over the given day buckets. A nil or
// empty bucket set falls back to DefaultBuckets.
func NewEstimator(buckets []int, referenceStability float64) *Estimator {
	if len(buckets) == 0 {
		buckets = DefaultBuckets
	}
	if referenceStability <= 0 {
		referenceStability = 10
	}
	return &Estimator{buckets: buckets, referenceStability: referenceStability}
}

// Estimate aggregates the review log into retention buckets and samples the
// exponential forgetting curve. An empty log yields an empty result, never an
// error: the consuming page renders an onboarding state for zero data.
func (e *Estimator) Estimate(logs []domain.ReviewLog, stabilities []float64) Result {
	if len(logs) == 0 {
		return Result{}
	}

	refStability := meanOf(stabilities)
	if refStability <= 0 {
		refStability = e.referenceStability
	}

	curve := make([]CurvePoint, 0, len(e.buckets))
	for _, day := range e.buckets {
		curve = append(curve, CurvePoint{
			Day:       day,
			Retention: 100 * math.Exp(-float64(day)/refStability),
		})
	}

	var points []Point
	var rateSum float64
	for _, day := range e.buckets {
		tolerance := bucketTolerance * float64(day)
		total, successful := 0, 0
		for _, entry := range logs {
			if math.Abs(entry.IntervalDaysBefore-float64(day)) > tolerance {
				continue
			}
			total++
			if srs.Quality(entry.Quality).Successful() {
				successful++
			}
		}
		if total == 0 {
			continue
		}
		rate := 100 * float64(successful) / float64(total)
		rateSum += rate
		points = append(points, Point{
			IntervalDays:  day,
			RetentionRate: rate,
			TotalCards:    total,
			Successful:    successful,
			Label:         dayLabel(day),
		})
	}

	var avg float64
	if len(points) > 0 {
		avg = rateSum / float64(len(points))
	}

	return Result{
		Points:           points,
		TheoreticalCurve: curve,
		Summary: Summary{
			TotalReviews:     len(logs),
			AvgRetention:     avg,
			CurrentStability: meanOf(stabilities),
		},
	}
}

func dayLabel(day int) string {
	if day == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", day)
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
