// Package tourney schedules concurrent candidate-versus-baseline games and
// stops as soon as the sequential test reaches a verdict.
package tourney

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sixfold/gauntlet/match"
	"github.com/sixfold/gauntlet/sprt"
	"github.com/sixfold/gauntlet/stats"
	"github.com/sixfold/gauntlet/uci"
)

const defaultConfidence = 95

// Settings fixes a tournament for its whole lifetime.
type Settings struct {
	BaselineCmd  string
	CandidateCmd string
	Concurrency  int
	// MaxGames stops the run without a verdict after this many games;
	// zero means no limit.
	MaxGames   int
	MaxPlies   int
	TC         uci.TimeControl
	SPRT       sprt.Config
	BookPath   string
	Seed       uint64
	Confidence float64
}

func (s Settings) Validate() error {
	if s.BaselineCmd == "" {
		return errors.New("baseline engine command is required")
	}
	if s.CandidateCmd == "" {
		return errors.New("candidate engine command is required")
	}
	if s.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", s.Concurrency)
	}
	return s.SPRT.Validate()
}

// Report is what a finished tournament hands back to the caller.
//
// When a verdict was reached, Stats and LLR are the snapshot that first
// crossed a boundary; results from games still in flight at that moment are
// counted in GamesPlayed but never revise the decision, which keeps the
// stopping rule well-defined.
type Report struct {
	Verdict      sprt.Verdict
	Stats        sprt.Stats
	LLR          float64
	LowerBound   float64
	UpperBound   float64
	Elo          sprt.EloEstimate
	GamesPlayed  int
	Terminations map[match.Termination]int
	GameLengths  []float64
	PlyStats     stats.Statistic
}

// spawnFunc starts one engine for one game. The default spawns a UCI
// process; tests substitute deterministic fakes.
type spawnFunc func(ctx context.Context, label, command string) (match.Player, error)

type decision struct {
	verdict sprt.Verdict
	stats   sprt.Stats
	llr     float64
}

// Tournament owns the worker pool, the scoreboard and the stopping rule.
type Tournament struct {
	settings Settings
	book     []Opening
	score    Scoreboard
	spawn    spawnFunc

	mu           sync.Mutex
	final        *decision
	stopDispatch context.CancelFunc
}

func New(settings Settings) (*Tournament, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if settings.Confidence <= 0 {
		settings.Confidence = defaultConfidence
	}
	book, err := LoadBook(settings.BookPath)
	if err != nil {
		return nil, err
	}
	ShuffleBook(book, settings.Seed)
	t := &Tournament{settings: settings, book: book}
	t.spawn = func(ctx context.Context, label, command string) (match.Player, error) {
		return uci.Start(ctx, label, command, settings.TC)
	}
	return t, nil
}

// Run plays games until a verdict, the game limit, or cancellation. The
// error return is reserved for fatal conditions (an engine that cannot be
// spawned); per-game protocol failures are data, not errors.
func (t *Tournament) Run(ctx context.Context) (*Report, error) {
	cfg := t.settings.SPRT
	log.Info().
		Float64("elo0", cfg.Elo0).Float64("elo1", cfg.Elo1).
		Float64("alpha", cfg.Alpha).Float64("beta", cfg.Beta).
		Float64("lower", cfg.LowerBound()).Float64("upper", cfg.UpperBound()).
		Int("concurrency", t.settings.Concurrency).
		Int("openings", len(t.book)).
		Msg("tournament-start")

	if err := t.preflight(ctx); err != nil {
		return nil, err
	}

	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	defer stopDispatch()
	t.mu.Lock()
	t.stopDispatch = stopDispatch
	t.mu.Unlock()

	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < t.settings.Concurrency; i++ {
		g.Go(func() error {
			for idx := range jobs {
				if err := t.playGame(gctx, idx); err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for i := 0; ; i++ {
			if t.settings.MaxGames > 0 && i >= t.settings.MaxGames {
				log.Info().Int("games", i).Msg("game-limit-reached")
				return nil
			}
			if t.decided() {
				return nil
			}
			select {
			case jobs <- i:
			case <-dispatchCtx.Done():
				return nil
			case <-gctx.Done():
				return nil
			}
		}
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t.report(), nil
}

// preflight starts one engine pair up front so a bad executable fails the
// run before any games are scheduled.
func (t *Tournament) preflight(ctx context.Context) error {
	pairs := []struct{ label, cmd string }{
		{"baseline", t.settings.BaselineCmd},
		{"candidate", t.settings.CandidateCmd},
	}
	for _, p := range pairs {
		e, err := t.spawn(ctx, p.label, p.cmd)
		if err != nil {
			return fmt.Errorf("preflight %s: %w", p.label, err)
		}
		if err := e.Quit(); err != nil {
			return fmt.Errorf("preflight %s shutdown: %w", p.label, err)
		}
	}
	return nil
}

// playGame spawns a fresh engine pair, plays game idx and feeds the result
// to the scoreboard. The candidate takes white on even indices and each
// opening is used for one game pair, so first-move advantage cancels out.
func (t *Tournament) playGame(ctx context.Context, idx int) error {
	opening := t.book[(idx/2)%len(t.book)]
	candWhite := idx%2 == 0

	cand, err := t.spawn(ctx, "candidate", t.settings.CandidateCmd)
	if err != nil {
		return fmt.Errorf("spawn candidate for game %d: %w", idx, err)
	}
	base, err := t.spawn(ctx, "baseline", t.settings.BaselineCmd)
	if err != nil {
		cand.Quit()
		return fmt.Errorf("spawn baseline for game %d: %w", idx, err)
	}

	res, err := match.Play(ctx, match.GameSpec{
		Candidate:      cand,
		Baseline:       base,
		CandidateWhite: candWhite,
		OpeningName:    opening.Name,
		OpeningFEN:     opening.FEN,
		OpeningMoves:   opening.Moves,
		MaxPlies:       t.settings.MaxPlies,
	})
	if err != nil {
		return err
	}
	t.onResult(idx, res)
	return nil
}

// onResult records a completed game and re-evaluates the stopping rule.
// The first snapshot to cross a boundary is latched; results arriving after
// it never change the verdict.
func (t *Tournament) onResult(idx int, res match.Result) {
	t.score.Record(res)
	snap := t.score.Snapshot()
	llr := sprt.LLR(t.settings.SPRT, snap)
	verdict := sprt.Test(t.settings.SPRT, snap)

	log.Info().
		Int("game", idx).
		Stringer("result", res).
		Int("wins", snap.Wins).Int("draws", snap.Draws).Int("losses", snap.Losses).
		Float64("llr", llr).
		Msg("game-complete")

	if verdict == sprt.Continue {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.final != nil {
		return
	}
	t.final = &decision{verdict: verdict, stats: snap, llr: llr}
	log.Info().Stringer("verdict", verdict).Float64("llr", llr).
		Int("games", snap.Games()).Msg("verdict-reached")
	if t.stopDispatch != nil {
		t.stopDispatch()
	}
}

func (t *Tournament) decided() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.final != nil
}

func (t *Tournament) report() *Report {
	cfg := t.settings.SPRT
	snap := t.score.Snapshot()
	rep := &Report{
		Verdict:      sprt.Continue,
		Stats:        snap,
		LLR:          sprt.LLR(cfg, snap),
		LowerBound:   cfg.LowerBound(),
		UpperBound:   cfg.UpperBound(),
		GamesPlayed:  snap.Games(),
		Terminations: t.score.Terminations(),
		GameLengths:  t.score.GameLengths(),
		PlyStats:     t.score.PlyStats(),
	}
	t.mu.Lock()
	if t.final != nil {
		rep.Verdict = t.final.verdict
		rep.Stats = t.final.stats
		rep.LLR = t.final.llr
	}
	t.mu.Unlock()
	rep.Elo = sprt.Elo(rep.Stats, t.settings.Confidence)
	return rep
}
