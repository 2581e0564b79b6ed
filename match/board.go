package match

import (
	"fmt"

	"github.com/notnil/chess"

	"github.com/sixfold/gauntlet/uci"
)

const defaultMaxPlies = 1024

// board wraps the rules engine. It validates and applies engine moves and
// adjudicates terminations; it never trusts either engine's own opinion of
// the game state.
type board struct {
	game     *chess.Game
	fen      string // empty means startpos
	moves    []string
	maxPlies int
}

func newBoard(fen string, maxPlies int) (*board, error) {
	if maxPlies <= 0 {
		maxPlies = defaultMaxPlies
	}
	b := &board{fen: fen, maxPlies: maxPlies}
	if fen == "" {
		b.game = chess.NewGame()
	} else {
		opt, err := chess.FEN(fen)
		if err != nil {
			return nil, fmt.Errorf("bad FEN %q: %w", fen, err)
		}
		b.game = chess.NewGame(opt)
	}
	return b, nil
}

// push validates a UCI move and applies it.
func (b *board) push(mv string) error {
	m, err := chess.UCINotation{}.Decode(b.game.Position(), mv)
	if err != nil {
		return err
	}
	if err := b.game.Move(m); err != nil {
		return err
	}
	b.moves = append(b.moves, mv)
	return nil
}

func (b *board) whiteToMove() bool {
	return b.game.Position().Turn() == chess.White
}

func (b *board) plies() int {
	return len(b.moves)
}

func (b *board) position() uci.Position {
	return uci.Position{FEN: b.fen, Moves: append([]string(nil), b.moves...)}
}

// outcome reports whether the game has ended by rule, and how. Claimable
// draws (threefold, fifty-move) are claimed on either side's behalf so a
// shuffling pair of engines cannot run forever; a hard ply cutoff backstops
// that.
func (b *board) outcome() (over bool, whiteWins bool, draw bool, term Termination) {
	for _, m := range b.game.EligibleDraws() {
		if m == chess.ThreefoldRepetition || m == chess.FiftyMoveRule {
			_ = b.game.Draw(m)
			break
		}
	}
	switch b.game.Outcome() {
	case chess.WhiteWon:
		return true, true, false, termFor(b.game.Method())
	case chess.BlackWon:
		return true, false, false, termFor(b.game.Method())
	case chess.Draw:
		return true, false, true, termFor(b.game.Method())
	}
	if len(b.moves) >= b.maxPlies {
		return true, false, true, Adjudication
	}
	return false, false, false, 0
}

func termFor(m chess.Method) Termination {
	switch m {
	case chess.Checkmate:
		return Checkmate
	case chess.Stalemate:
		return Stalemate
	default:
		return DrawByRule
	}
}

// ValidateOpening replays an opening line to make sure every move is legal.
func ValidateOpening(fen string, moves []string) error {
	b, err := newBoard(fen, 0)
	if err != nil {
		return err
	}
	for _, mv := range moves {
		if err := b.push(mv); err != nil {
			return fmt.Errorf("opening move %s: %w", mv, err)
		}
	}
	return nil
}
