package tourney

import (
	"encoding/binary"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/sixfold/gauntlet/match"
)

// Opening is one line of the opening book. A line is a FEN (empty for the
// standard starting position) plus UCI moves played from it.
type Opening struct {
	Name  string   `yaml:"name"`
	FEN   string   `yaml:"fen,omitempty"`
	Moves []string `yaml:"moves,omitempty"`
}

type bookFile struct {
	Openings []Opening `yaml:"openings"`
}

// LoadBook reads a YAML opening book and validates every line against the
// rules engine. An empty path yields a single startpos opening, which is
// fine for quick runs but correlates games; serious runs want a book.
func LoadBook(path string) ([]Opening, error) {
	if path == "" {
		return []Opening{{Name: "startpos"}}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bf bookFile
	if err := yaml.Unmarshal(raw, &bf); err != nil {
		return nil, fmt.Errorf("parse book %s: %w", path, err)
	}
	if len(bf.Openings) == 0 {
		return nil, fmt.Errorf("book %s has no openings", path)
	}
	for i, o := range bf.Openings {
		if err := match.ValidateOpening(o.FEN, o.Moves); err != nil {
			return nil, fmt.Errorf("book %s, opening %d (%s): %w", path, i, o.Name, err)
		}
	}
	return bf.Openings, nil
}

// ShuffleBook permutes the book in place. A nonzero seed gives a
// reproducible order.
func ShuffleBook(book []Opening, seed uint64) {
	var rng *frand.RNG
	if seed == 0 {
		rng = frand.New()
	} else {
		var key [32]byte
		binary.LittleEndian.PutUint64(key[:], seed)
		rng = frand.NewCustom(key[:], 1024, 12)
	}
	rng.Shuffle(len(book), func(i, j int) {
		book[i], book[j] = book[j], book[i]
	})
}
