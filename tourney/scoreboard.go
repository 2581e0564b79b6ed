package tourney

import (
	"sync"

	"github.com/samber/lo"

	"github.com/sixfold/gauntlet/match"
	"github.com/sixfold/gauntlet/sprt"
	"github.com/sixfold/gauntlet/stats"
)

// Scoreboard accumulates game results as they complete. All mutation goes
// through Record; Snapshot returns a consistent point-in-time triple, never
// a half-applied update. Counts only ever grow within a run.
type Scoreboard struct {
	mu     sync.Mutex
	wins   int
	draws  int
	losses int

	plies   stats.Statistic
	lengths []float64
	terms   []match.Termination
}

func (s *Scoreboard) Record(r match.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.Outcome {
	case match.Win:
		s.wins++
	case match.Draw:
		s.draws++
	case match.Loss:
		s.losses++
	}
	s.plies.Push(float64(r.Plies))
	s.lengths = append(s.lengths, float64(r.Plies))
	s.terms = append(s.terms, r.Termination)
}

func (s *Scoreboard) Snapshot() sprt.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sprt.Stats{Wins: s.wins, Draws: s.draws, Losses: s.losses}
}

// Terminations tallies how recorded games ended.
func (s *Scoreboard) Terminations() map[match.Termination]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.CountValues(s.terms)
}

// GameLengths returns a copy of the recorded ply counts, in completion
// order.
func (s *Scoreboard) GameLengths() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.lengths...)
}

// PlyStats returns running statistics over game length.
func (s *Scoreboard) PlyStats() stats.Statistic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plies
}
