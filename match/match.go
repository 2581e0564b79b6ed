// Package match plays single games between a candidate engine and a
// baseline engine and scores them from the candidate's point of view.
// Rule-based terminations (mate, stalemate, draws) are adjudicated
// independently of what either engine reports.
package match

import (
	"context"
	"fmt"

	"github.com/sixfold/gauntlet/uci"
)

// Outcome is a game result from the candidate's perspective.
type Outcome int8

const (
	Loss Outcome = iota
	Draw
	Win
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "loss"
	}
}

// Score returns the game score: win 1, draw ½, loss 0.
func (o Outcome) Score() float64 {
	switch o {
	case Win:
		return 1
	case Draw:
		return 0.5
	default:
		return 0
	}
}

// Termination says how a game ended. Rule-based reasons come from the
// adjudication oracle; Timeout, IllegalMove and Crash are protocol failures
// attributed to the offending side; Adjudication is the max-ply draw cutoff.
type Termination int

const (
	Checkmate Termination = iota
	Stalemate
	DrawByRule
	Resignation
	Timeout
	IllegalMove
	Crash
	Adjudication
)

func (t Termination) String() string {
	switch t {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case DrawByRule:
		return "draw by rule"
	case Resignation:
		return "resignation"
	case Timeout:
		return "timeout"
	case IllegalMove:
		return "illegal move"
	case Crash:
		return "crash"
	default:
		return "adjudication"
	}
}

// Result is the scored record of one finished game. It is immutable once
// produced.
type Result struct {
	Outcome        Outcome
	CandidateWhite bool
	Plies          int
	Termination    Termination
	Opening        string
}

func (r Result) String() string {
	seat := "black"
	if r.CandidateWhite {
		seat = "white"
	}
	return fmt.Sprintf("%s as %s in %d plies (%s)", r.Outcome, seat, r.Plies, r.Termination)
}

// Player is the capability a game runner needs from an engine: produce a
// move for a position, and shut down. *uci.Engine satisfies it; tests
// substitute deterministic fakes.
type Player interface {
	BestMove(ctx context.Context, pos uci.Position) (string, error)
	Quit() error
}
