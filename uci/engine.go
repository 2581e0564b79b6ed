// Package uci manages the lifecycle of one external chess engine speaking
// the Universal Chess Interface over stdin/stdout pipes: spawn, handshake,
// per-move request/response with a deadline, crash detection, shutdown.
//
// An Engine is owned by exactly one game and never reused; every game gets a
// freshly spawned pair so trials stay independent.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
)

var (
	// ErrSpawn means the engine executable could not be launched or never
	// completed the UCI handshake. Fatal to a tournament.
	ErrSpawn = errors.New("engine failed to start")
	// ErrTimeout means the engine exceeded its per-move deadline.
	ErrTimeout = errors.New("engine exceeded its move deadline")
	// ErrCrashed means the engine process exited unexpectedly.
	ErrCrashed = errors.New("engine process exited unexpectedly")
	// ErrIllegalResponse means the engine sent a malformed reply.
	ErrIllegalResponse = errors.New("engine sent a malformed response")
)

const (
	handshakeTimeout = 10 * time.Second
	readyTimeout     = 2 * time.Second
	quitTimeout      = 2 * time.Second
)

type State int

const (
	NotStarted State = iota
	Ready
	Busy
	Crashed
	Terminated
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Busy:
		return "busy"
	case Crashed:
		return "crashed"
	case Terminated:
		return "terminated"
	default:
		return "not started"
	}
}

// Position is the wire form of a game position: a FEN (empty for the
// standard starting position) plus the UCI moves played from it.
type Position struct {
	FEN   string
	Moves []string
}

func (p Position) command() string {
	var sb strings.Builder
	if p.FEN == "" {
		sb.WriteString("position startpos")
	} else {
		sb.WriteString("position fen ")
		sb.WriteString(p.FEN)
	}
	if len(p.Moves) > 0 {
		sb.WriteString(" moves ")
		sb.WriteString(strings.Join(p.Moves, " "))
	}
	return sb.String()
}

// Engine is one running engine process.
type Engine struct {
	Label string

	tc    TimeControl
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
	done  chan struct{}

	mu      sync.Mutex
	state   State
	waitErr error

	quitOnce sync.Once
	quitErr  error
}

// Start spawns an engine from a shell-style command line and runs the UCI
// handshake. Any failure on this path wraps ErrSpawn.
func Start(ctx context.Context, label, command string, tc TimeControl) (*Engine, error) {
	words, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("%w: bad command %q: %v", ErrSpawn, command, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrSpawn)
	}
	cmd := exec.Command(words[0], words[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, command, err)
	}

	e := &Engine{
		Label: label,
		tc:    tc,
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, 256),
		done:  make(chan struct{}),
	}
	go e.readLoop(stdout)

	if err := e.handshake(ctx); err != nil {
		e.Quit()
		return nil, fmt.Errorf("%w: %s handshake: %v", ErrSpawn, label, err)
	}
	e.setState(Ready)
	log.Debug().Str("engine", label).Int("pid", cmd.Process.Pid).Msg("engine-ready")
	return e, nil
}

// readLoop owns stdout. It reaps the process when the pipe closes, so the
// done channel also means "process exited".
func (e *Engine) readLoop(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case e.lines <- line:
		default:
			// nobody is listening; drop engine chatter rather than block
		}
	}
	err := e.cmd.Wait()
	e.mu.Lock()
	e.waitErr = err
	if e.state != Terminated {
		e.state = Crashed
	}
	e.mu.Unlock()
	close(e.lines)
	close(e.done)
}

func (e *Engine) send(format string, args ...any) error {
	if _, err := fmt.Fprintf(e.stdin, format+"\n", args...); err != nil {
		return fmt.Errorf("%w: write: %v", ErrCrashed, err)
	}
	return nil
}

// await reads lines until one starts with the given prefix or the deadline
// passes.
func (e *Engine) await(ctx context.Context, prefix string, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-e.lines:
			if !ok {
				return "", ErrCrashed
			}
			if strings.HasPrefix(line, prefix) {
				return line, nil
			}
		case <-timer.C:
			return "", ErrTimeout
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (e *Engine) handshake(ctx context.Context) error {
	if err := e.send("uci"); err != nil {
		return err
	}
	if _, err := e.await(ctx, "uciok", handshakeTimeout); err != nil {
		return err
	}
	// Some engines need a beat after uciok before they answer probes.
	if err := retry.Do(
		func() error { return e.ping(ctx) },
		retry.Attempts(3),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool { return errors.Is(err, ErrTimeout) }),
	); err != nil {
		return err
	}
	return e.send("ucinewgame")
}

func (e *Engine) ping(ctx context.Context) error {
	if err := e.send("isready"); err != nil {
		return err
	}
	_, err := e.await(ctx, "readyok", readyTimeout)
	return err
}

// BestMove asks the engine for its move in the given position. On failure
// the returned error wraps exactly one of ErrTimeout, ErrCrashed or
// ErrIllegalResponse, unless the context was canceled.
func (e *Engine) BestMove(ctx context.Context, pos Position) (string, error) {
	e.setState(Busy)
	if err := e.send(pos.command()); err != nil {
		e.setState(Crashed)
		return "", fmt.Errorf("%s: %w", e.Label, err)
	}
	if err := e.send(e.tc.goCommand()); err != nil {
		e.setState(Crashed)
		return "", fmt.Errorf("%s: %w", e.Label, err)
	}
	line, err := e.await(ctx, "bestmove", e.tc.deadline())
	if err != nil {
		if errors.Is(err, ErrCrashed) {
			e.setState(Crashed)
		}
		return "", fmt.Errorf("%s: %w", e.Label, err)
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		// the engine did answer, so it is idle again; the reply just
		// wasn't usable
		e.setState(Ready)
		return "", fmt.Errorf("%s: %w: %q", e.Label, ErrIllegalResponse, line)
	}
	e.setState(Ready)
	return fields[1], nil
}

// Quit shuts the engine down: a polite quit, a bounded wait, then a kill.
// It is idempotent and must run on every exit path; no process may outlive
// its game.
func (e *Engine) Quit() error {
	e.quitOnce.Do(func() {
		e.setState(Terminated)
		_ = e.send("quit")
		select {
		case <-e.done:
		case <-time.After(quitTimeout):
			if err := e.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				e.quitErr = err
			}
			<-e.done
		}
		_ = e.stdin.Close()
		log.Debug().Str("engine", e.Label).Msg("engine-shutdown")
	})
	return e.quitErr
}

// State reports the engine's lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// setState never downgrades a terminal state.
func (e *Engine) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Crashed || e.state == Terminated {
		return
	}
	e.state = s
}
