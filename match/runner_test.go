package match

import (
	"context"
	"fmt"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixfold/gauntlet/uci"
)

// scriptedPlayer replays a fixed game line: when asked for a move at ply N
// it returns line[N]. When the script runs out (or is empty) it returns
// fail. Quit calls are counted so tests can assert teardown.
type scriptedPlayer struct {
	line  []string
	fail  error
	quits int
}

func (p *scriptedPlayer) BestMove(_ context.Context, pos uci.Position) (string, error) {
	idx := len(pos.Moves)
	if idx < len(p.line) {
		return p.line[idx], nil
	}
	if p.fail != nil {
		return "", p.fail
	}
	return "", uci.ErrIllegalResponse
}

func (p *scriptedPlayer) Quit() error {
	p.quits++
	return nil
}

var foolsMate = []string{"f2f3", "e7e5", "g2g4", "d8h4"}
var whiteMates = []string{"e2e4", "f7f6", "d2d4", "g7g5", "d1h5"}
var knightShuffle = []string{"g1f3", "g8f6", "f3g1", "f6g8"}

func TestCandidateWinsAsBlack(t *testing.T) {
	is := is.New(t)
	cand := &scriptedPlayer{line: foolsMate}
	base := &scriptedPlayer{line: foolsMate}

	res, err := Play(context.Background(), GameSpec{
		Candidate: cand, Baseline: base, CandidateWhite: false,
	})
	is.NoErr(err)
	is.Equal(res.Outcome, Win)
	is.Equal(res.Termination, Checkmate)
	is.Equal(res.Plies, 4)
	is.Equal(res.CandidateWhite, false)
	is.Equal(cand.quits, 1)
	is.Equal(base.quits, 1)
}

func TestCandidateWinsAsWhite(t *testing.T) {
	is := is.New(t)
	res, err := Play(context.Background(), GameSpec{
		Candidate:      &scriptedPlayer{line: whiteMates},
		Baseline:       &scriptedPlayer{line: whiteMates},
		CandidateWhite: true,
	})
	is.NoErr(err)
	is.Equal(res.Outcome, Win)
	is.Equal(res.Termination, Checkmate)
	is.Equal(res.Plies, 5)
}

func TestTimeoutIsALossWithCleanTeardown(t *testing.T) {
	is := is.New(t)
	cand := &scriptedPlayer{fail: fmt.Errorf("candidate: %w", uci.ErrTimeout)}
	base := &scriptedPlayer{line: foolsMate}

	res, err := Play(context.Background(), GameSpec{
		Candidate: cand, Baseline: base, CandidateWhite: true,
	})
	is.NoErr(err)
	is.Equal(res.Outcome, Loss)
	is.Equal(res.Termination, Timeout)
	// both engines are torn down exactly once, no orphaned handles
	is.Equal(cand.quits, 1)
	is.Equal(base.quits, 1)
}

func TestCrashedBaselineLosesWithCrashTag(t *testing.T) {
	is := is.New(t)
	res, err := Play(context.Background(), GameSpec{
		Candidate:      &scriptedPlayer{line: foolsMate},
		Baseline:       &scriptedPlayer{fail: fmt.Errorf("baseline: %w", uci.ErrCrashed)},
		CandidateWhite: false,
	})
	is.NoErr(err)
	is.Equal(res.Outcome, Win)
	is.Equal(res.Termination, Crash)
}

func TestIllegalMoveLoses(t *testing.T) {
	is := is.New(t)
	res, err := Play(context.Background(), GameSpec{
		Candidate:      &scriptedPlayer{line: []string{"e2e5"}},
		Baseline:       &scriptedPlayer{line: foolsMate},
		CandidateWhite: true,
	})
	is.NoErr(err)
	is.Equal(res.Outcome, Loss)
	is.Equal(res.Termination, IllegalMove)
	is.Equal(res.Plies, 0)
}

func TestMalformedResponseLoses(t *testing.T) {
	is := is.New(t)
	res, err := Play(context.Background(), GameSpec{
		Candidate:      &scriptedPlayer{fail: fmt.Errorf("candidate: %w: %q", uci.ErrIllegalResponse, "oops")},
		Baseline:       &scriptedPlayer{line: foolsMate},
		CandidateWhite: true,
	})
	is.NoErr(err)
	is.Equal(res.Outcome, Loss)
	is.Equal(res.Termination, IllegalMove)
}

func TestResignation(t *testing.T) {
	is := is.New(t)
	res, err := Play(context.Background(), GameSpec{
		Candidate:      &scriptedPlayer{line: foolsMate},
		Baseline:       &scriptedPlayer{line: []string{"resign"}},
		CandidateWhite: false,
	})
	is.NoErr(err)
	is.Equal(res.Outcome, Win)
	is.Equal(res.Termination, Resignation)
}

func TestStalemateFromOpeningFEN(t *testing.T) {
	is := is.New(t)
	res, err := Play(context.Background(), GameSpec{
		Candidate:  &scriptedPlayer{},
		Baseline:   &scriptedPlayer{},
		OpeningFEN: "7k/8/6Q1/8/8/8/8/K7 b - - 0 1",
	})
	is.NoErr(err)
	is.Equal(res.Outcome, Draw)
	is.Equal(res.Termination, Stalemate)
	is.Equal(res.Plies, 0)
}

func TestMaxPliesAdjudicatesDraw(t *testing.T) {
	is := is.New(t)
	res, err := Play(context.Background(), GameSpec{
		Candidate: &scriptedPlayer{line: knightShuffle},
		Baseline:  &scriptedPlayer{line: knightShuffle},
		MaxPlies:  4,
	})
	is.NoErr(err)
	is.Equal(res.Outcome, Draw)
	is.Equal(res.Termination, Adjudication)
	is.Equal(res.Plies, 4)
}

func TestThreefoldRepetitionIsClaimed(t *testing.T) {
	is := is.New(t)
	line := append(append([]string{}, knightShuffle...), knightShuffle...)
	res, err := Play(context.Background(), GameSpec{
		Candidate: &scriptedPlayer{line: line},
		Baseline:  &scriptedPlayer{line: line},
	})
	is.NoErr(err)
	is.Equal(res.Outcome, Draw)
	is.Equal(res.Termination, DrawByRule)
	is.Equal(res.Plies, 8)
}

func TestOpeningMovesAreApplied(t *testing.T) {
	is := is.New(t)
	res, err := Play(context.Background(), GameSpec{
		Candidate:    &scriptedPlayer{line: foolsMate},
		Baseline:     &scriptedPlayer{line: foolsMate},
		OpeningMoves: foolsMate[:3],
		OpeningName:  "fool's prelude",
	})
	is.NoErr(err)
	is.Equal(res.Outcome, Win) // candidate defaults to black and delivers mate
	is.Equal(res.Plies, 4)
	is.Equal(res.Opening, "fool's prelude")
}

func TestCanceledContextAbortsWithoutAResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Play(ctx, GameSpec{
		Candidate:      &scriptedPlayer{fail: context.Canceled},
		Baseline:       &scriptedPlayer{},
		CandidateWhite: true,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidateOpening(t *testing.T) {
	require.NoError(t, ValidateOpening("", []string{"e2e4", "c7c5"}))
	assert.Error(t, ValidateOpening("", []string{"e2e5"}))
	assert.Error(t, ValidateOpening("not a fen", nil))
}

func TestBadOpeningSpecIsAnError(t *testing.T) {
	is := is.New(t)
	_, err := Play(context.Background(), GameSpec{
		Candidate:    &scriptedPlayer{},
		Baseline:     &scriptedPlayer{},
		OpeningMoves: []string{"h1h8"},
	})
	is.True(err != nil)
}
