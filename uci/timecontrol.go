package uci

import (
	"fmt"
	"time"
)

const defaultGrace = 5 * time.Second

// TimeControl fixes the search budget for every move of a game. Exactly one
// of Depth, Nodes or MoveTime drives the "go" command; Depth and Nodes take
// precedence over MoveTime. Grace is the extra wall time allowed past
// MoveTime before the move is declared timed out (it is the whole deadline
// for depth- and node-limited searches).
type TimeControl struct {
	MoveTime time.Duration
	Depth    int
	Nodes    int64
	Grace    time.Duration
}

func (tc TimeControl) goCommand() string {
	switch {
	case tc.Depth > 0:
		return fmt.Sprintf("go depth %d", tc.Depth)
	case tc.Nodes > 0:
		return fmt.Sprintf("go nodes %d", tc.Nodes)
	default:
		return fmt.Sprintf("go movetime %d", tc.MoveTime.Milliseconds())
	}
}

// deadline bounds how long we wait for a bestmove reply.
func (tc TimeControl) deadline() time.Duration {
	grace := tc.Grace
	if grace <= 0 {
		grace = defaultGrace
	}
	if tc.Depth > 0 || tc.Nodes > 0 {
		return grace
	}
	return tc.MoveTime + grace
}
