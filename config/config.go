// Package config loads harness settings from flags, environment variables
// (GAUNTLET_*) and an optional config file, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Baseline  string
	Candidate string

	Elo0  float64
	Elo1  float64
	Alpha float64
	Beta  float64

	Concurrency int
	MaxGames    int
	MaxPlies    int

	MoveTime time.Duration
	Depth    int
	Nodes    int64
	Grace    time.Duration

	Book       string
	Seed       uint64
	Confidence float64
	Debug      bool
}

func (c *Config) Load(args []string) error {
	fs := pflag.NewFlagSet("gauntlet", pflag.ContinueOnError)
	fs.String("baseline", "", "command line of the baseline engine")
	fs.String("candidate", "", "command line of the candidate engine")
	fs.Float64("elo0", 0, "elo difference under the null hypothesis")
	fs.Float64("elo1", 5, "elo difference under the alternative hypothesis")
	fs.Float64("alpha", 0.05, "false positive rate bound")
	fs.Float64("beta", 0.05, "false negative rate bound")
	fs.Int("concurrency", 1, "games to run in parallel")
	fs.Int("max-games", 0, "stop without a verdict after this many games (0 = no limit)")
	fs.Int("max-plies", 400, "adjudicate a draw after this many half-moves")
	fs.Duration("movetime", 100*time.Millisecond, "search time per move")
	fs.Int("depth", 0, "fixed search depth per move (overrides movetime)")
	fs.Int64("nodes", 0, "fixed node budget per move (overrides movetime)")
	fs.Duration("grace", 2*time.Second, "extra wall time past movetime before a move times out")
	fs.String("book", "", "YAML opening book")
	fs.Uint64("seed", 0, "opening shuffle seed (0 = random order)")
	fs.Float64("confidence", 95, "confidence level for the reported elo interval, in percent")
	fs.String("config", "", "optional config file (yaml)")
	fs.Bool("debug", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	v.SetEnvPrefix("gauntlet")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	c.Baseline = v.GetString("baseline")
	c.Candidate = v.GetString("candidate")
	c.Elo0 = v.GetFloat64("elo0")
	c.Elo1 = v.GetFloat64("elo1")
	c.Alpha = v.GetFloat64("alpha")
	c.Beta = v.GetFloat64("beta")
	c.Concurrency = v.GetInt("concurrency")
	c.MaxGames = v.GetInt("max-games")
	c.MaxPlies = v.GetInt("max-plies")
	c.MoveTime = v.GetDuration("movetime")
	c.Depth = v.GetInt("depth")
	c.Nodes = v.GetInt64("nodes")
	c.Grace = v.GetDuration("grace")
	c.Book = v.GetString("book")
	c.Seed = v.GetUint64("seed")
	c.Confidence = v.GetFloat64("confidence")
	c.Debug = v.GetBool("debug")
	return nil
}
