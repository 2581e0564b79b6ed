// Package sprt implements the sequential probability ratio test used to
// adjudicate candidate-versus-baseline engine matches.
//
// Game results are modeled as a trinomial (win/draw/loss). The draw
// probability is taken from the empirical sample and held fixed between the
// two hypotheses; the win and loss probabilities under each hypothesis are
// derived from the expected score implied by its Elo bound.
package sprt

import (
	"errors"
	"fmt"
	"math"
)

// ProbEpsilon is the floor applied to every outcome probability before a
// logarithm is taken. It is part of the decision contract: changing it can
// move the exact game on which a run crosses a boundary.
const ProbEpsilon = 1e-6

type Verdict int

const (
	Continue Verdict = iota
	AcceptH0
	AcceptH1
)

func (v Verdict) String() string {
	switch v {
	case AcceptH0:
		return "H0 accepted"
	case AcceptH1:
		return "H1 accepted"
	default:
		return "continue"
	}
}

// Config holds the SPRT parameters for an entire run. Elo0 and Elo1 are
// candidate-relative Elo differences; a gain test puts Elo0 at or below zero
// and Elo1 above it, a regression test puts both at or below zero.
type Config struct {
	Elo0  float64
	Elo1  float64
	Alpha float64
	Beta  float64
}

func (c Config) Validate() error {
	if c.Elo0 == c.Elo1 {
		return errors.New("elo0 and elo1 must differ")
	}
	if c.Elo1 < c.Elo0 {
		return fmt.Errorf("elo1 (%v) must exceed elo0 (%v)", c.Elo1, c.Elo0)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("alpha must be in (0, 1), got %v", c.Alpha)
	}
	if c.Beta <= 0 || c.Beta >= 1 {
		return fmt.Errorf("beta must be in (0, 1), got %v", c.Beta)
	}
	if c.Alpha+c.Beta >= 1 {
		return fmt.Errorf("alpha + beta must be below 1, got %v", c.Alpha+c.Beta)
	}
	return nil
}

// LowerBound is the LLR threshold at which H0 is accepted.
func (c Config) LowerBound() float64 {
	return math.Log(c.Beta / (1 - c.Alpha))
}

// UpperBound is the LLR threshold at which H1 is accepted.
func (c Config) UpperBound() float64 {
	return math.Log((1 - c.Beta) / c.Alpha)
}

// Stats is a point-in-time snapshot of scored games, always from the
// candidate's perspective.
type Stats struct {
	Wins   int
	Draws  int
	Losses int
}

func (s Stats) Games() int {
	return s.Wins + s.Draws + s.Losses
}

// Score returns the mean score per game (win 1, draw ½, loss 0).
func (s Stats) Score() float64 {
	n := s.Games()
	if n == 0 {
		return 0
	}
	return (float64(s.Wins) + float64(s.Draws)/2) / float64(n)
}

// EloToScore converts an Elo difference to an expected score via the
// logistic relation.
func EloToScore(elo float64) float64 {
	return 1 / (1 + math.Pow(10, -elo/400))
}

// ScoreToElo is the inverse of EloToScore. The score must be strictly
// between 0 and 1.
func ScoreToElo(score float64) float64 {
	return -400 * math.Log10(1/score-1)
}

func clampProb(p float64) float64 {
	if p < ProbEpsilon {
		return ProbEpsilon
	}
	if p > 1-ProbEpsilon {
		return 1 - ProbEpsilon
	}
	return p
}

// hypothesisProbs splits an expected score into win/draw/loss probabilities
// with the draw ratio held fixed.
func hypothesisProbs(score, drawRatio float64) (w, d, l float64) {
	w = clampProb(score - drawRatio/2)
	l = clampProb(1 - score - drawRatio/2)
	d = clampProb(drawRatio)
	return w, d, l
}

// LLR returns the cumulative log-likelihood ratio of the Elo1 hypothesis
// over the Elo0 hypothesis for the given snapshot. Zero games means zero
// evidence: the result is exactly 0. The result is always finite; degenerate
// samples (all one outcome) are handled by the ProbEpsilon clamp.
func LLR(c Config, s Stats) float64 {
	n := s.Games()
	if n == 0 {
		return 0
	}
	drawRatio := float64(s.Draws) / float64(n)
	if drawRatio > 1-2*ProbEpsilon {
		drawRatio = 1 - 2*ProbEpsilon
	}
	w0, d0, l0 := hypothesisProbs(EloToScore(c.Elo0), drawRatio)
	w1, d1, l1 := hypothesisProbs(EloToScore(c.Elo1), drawRatio)
	return float64(s.Wins)*math.Log(w1/w0) +
		float64(s.Draws)*math.Log(d1/d0) +
		float64(s.Losses)*math.Log(l1/l0)
}

// Test derives a verdict from a statistics snapshot. It is a pure function
// of its arguments and may be called after every game.
func Test(c Config, s Stats) Verdict {
	llr := LLR(c, s)
	switch {
	case llr >= c.UpperBound():
		return AcceptH1
	case llr <= c.LowerBound():
		return AcceptH0
	default:
		return Continue
	}
}
