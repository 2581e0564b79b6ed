package sprt

import (
	"fmt"
	"math"

	"github.com/sixfold/gauntlet/stats"
)

// EloEstimate is a point estimate of the candidate's Elo advantage with a
// normal-approximation confidence interval.
type EloEstimate struct {
	Elo        float64
	Lower      float64
	Upper      float64
	Confidence float64 // percent
}

func (e EloEstimate) String() string {
	return fmt.Sprintf("%+.1f [%+.1f, %+.1f] (%.0f%%)",
		e.Elo, e.Lower, e.Upper, e.Confidence)
}

// Elo estimates the candidate's Elo difference from a snapshot. confidence
// is a percentage (e.g. 95). With zero games the estimate and interval are
// all zero.
func Elo(s Stats, confidence float64) EloEstimate {
	n := s.Games()
	if n == 0 {
		return EloEstimate{Confidence: confidence}
	}
	mean := s.Score()
	// per-game score variance around the sample mean
	variance := (float64(s.Wins)*sq(1-mean) +
		float64(s.Draws)*sq(0.5-mean) +
		float64(s.Losses)*sq(0-mean)) / float64(n)
	stderr := math.Sqrt(variance / float64(n))
	z := stats.ZVal(confidence)
	return EloEstimate{
		Elo:        scoreElo(mean),
		Lower:      scoreElo(mean - z*stderr),
		Upper:      scoreElo(mean + z*stderr),
		Confidence: confidence,
	}
}

// scoreElo converts a score to Elo, clamped so degenerate samples (all wins,
// all losses) map to a large finite difference instead of ±Inf.
func scoreElo(score float64) float64 {
	return ScoreToElo(clampProb(score))
}

func sq(x float64) float64 { return x * x }
