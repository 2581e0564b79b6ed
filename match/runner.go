package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sixfold/gauntlet/uci"
)

// GameSpec describes one game to be played. The opening line must already
// be validated (see ValidateOpening); both players are owned by this game
// and are shut down before Play returns.
type GameSpec struct {
	Candidate      Player
	Baseline       Player
	CandidateWhite bool
	OpeningName    string
	OpeningFEN     string
	OpeningMoves   []string
	MaxPlies       int
}

// Play runs one game to a terminal state and produces exactly one Result.
// Engine misbehavior (timeout, illegal or malformed move, crash,
// resignation) never yields an error; it is converted into a loss for the
// offending side with the matching Termination. The error return is
// reserved for an unplayable spec or a canceled context, in which case no
// result should be scored.
func Play(ctx context.Context, spec GameSpec) (Result, error) {
	defer spec.Candidate.Quit()
	defer spec.Baseline.Quit()

	b, err := newBoard(spec.OpeningFEN, spec.MaxPlies)
	if err != nil {
		return Result{}, err
	}
	for _, mv := range spec.OpeningMoves {
		if err := b.push(mv); err != nil {
			return Result{}, fmt.Errorf("opening move %s: %w", mv, err)
		}
	}

	white, black := spec.Baseline, spec.Candidate
	if spec.CandidateWhite {
		white, black = spec.Candidate, spec.Baseline
	}

	for {
		// rule-based adjudication takes precedence over anything either
		// engine says
		if over, whiteWins, draw, term := b.outcome(); over {
			return spec.scored(whiteWins, draw, b.plies(), term), nil
		}

		mover, moverWhite := black, false
		if b.whiteToMove() {
			mover, moverWhite = white, true
		}

		mv, err := mover.BestMove(ctx, b.position())
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			log.Debug().Err(err).Bool("white", moverWhite).
				Int("ply", b.plies()).Msg("protocol-failure")
			return spec.scored(!moverWhite, false, b.plies(), terminationFor(err)), nil
		}
		if isResignation(mv) {
			return spec.scored(!moverWhite, false, b.plies(), Resignation), nil
		}
		if err := b.push(mv); err != nil {
			log.Debug().Err(err).Str("move", mv).Bool("white", moverWhite).
				Int("ply", b.plies()).Msg("illegal-move")
			return spec.scored(!moverWhite, false, b.plies(), IllegalMove), nil
		}
	}
}

// scored converts a terminal state into a Result from the candidate's
// perspective, regardless of seat.
func (spec GameSpec) scored(whiteWins, draw bool, plies int, term Termination) Result {
	out := Loss
	if draw {
		out = Draw
	} else if whiteWins == spec.CandidateWhite {
		out = Win
	}
	return Result{
		Outcome:        out,
		CandidateWhite: spec.CandidateWhite,
		Plies:          plies,
		Termination:    term,
		Opening:        spec.OpeningName,
	}
}

func terminationFor(err error) Termination {
	switch {
	case errors.Is(err, uci.ErrTimeout):
		return Timeout
	case errors.Is(err, uci.ErrCrashed):
		return Crash
	default:
		return IllegalMove
	}
}

// Engines signal resignation through the bestmove token; there is no
// dedicated UCI command for it.
func isResignation(mv string) bool {
	switch mv {
	case "resign", "(none)", "0000":
		return true
	}
	return false
}
