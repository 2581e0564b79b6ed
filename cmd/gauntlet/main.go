package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sixfold/gauntlet/config"
	"github.com/sixfold/gauntlet/sprt"
	"github.com/sixfold/gauntlet/tourney"
	"github.com/sixfold/gauntlet/uci"
)

var (
	GitVersion string
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(level)
	log.Logger = logger
	if GitVersion != "" {
		log.Info().Str("version", GitVersion).Msg("gauntlet")
	}

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("got quit signal, aborting run...")
		cancel()
	}()

	settings := tourney.Settings{
		BaselineCmd:  cfg.Baseline,
		CandidateCmd: cfg.Candidate,
		Concurrency:  cfg.Concurrency,
		MaxGames:     cfg.MaxGames,
		MaxPlies:     cfg.MaxPlies,
		TC: uci.TimeControl{
			MoveTime: cfg.MoveTime,
			Depth:    cfg.Depth,
			Nodes:    cfg.Nodes,
			Grace:    cfg.Grace,
		},
		SPRT: sprt.Config{
			Elo0:  cfg.Elo0,
			Elo1:  cfg.Elo1,
			Alpha: cfg.Alpha,
			Beta:  cfg.Beta,
		},
		BookPath:   cfg.Book,
		Seed:       cfg.Seed,
		Confidence: cfg.Confidence,
	}

	t, err := tourney.New(settings)
	if err != nil {
		log.Fatal().Err(err).Msg("bad tournament settings")
	}
	report, err := t.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("tournament failed")
	}
	printReport(report)
}

func printReport(r *tourney.Report) {
	fmt.Printf("verdict:  %s\n", r.Verdict)
	fmt.Printf("games:    %d (W %d / D %d / L %d over the deciding sample)\n",
		r.GamesPlayed, r.Stats.Wins, r.Stats.Draws, r.Stats.Losses)
	fmt.Printf("llr:      %.3f  bounds [%.3f, %.3f]\n", r.LLR, r.LowerBound, r.UpperBound)
	fmt.Printf("elo:      %s\n", r.Elo)

	if len(r.Terminations) > 0 {
		fmt.Println("terminations:")
		type tally struct {
			name  string
			count int
		}
		var tallies []tally
		for term, n := range r.Terminations {
			tallies = append(tallies, tally{term.String(), n})
		}
		sort.Slice(tallies, func(i, j int) bool { return tallies[i].count > tallies[j].count })
		for _, tl := range tallies {
			fmt.Printf("  %-14s %d\n", tl.name, tl.count)
		}
	}

	if len(r.GameLengths) > 1 {
		fmt.Printf("game length: mean %.1f plies, stdev %.1f\n",
			r.PlyStats.Mean(), r.PlyStats.Stdev())
		hist := histogram.Hist(10, r.GameLengths)
		if err := histogram.Fprint(os.Stdout, hist, histogram.Linear(40)); err != nil {
			log.Debug().Err(err).Msg("could not render histogram")
		}
	}
}
