// internal/board/generator.go

// Package board produces fresh tile grids with per-cell point values and
// bonus multipliers. Grids are immutable once handed to a session; the
// generator is safe for concurrent use because each call owns its own
// rand source.
package board

import (
	"math/rand"
	"time"

	"github.com/spellgrid/gridspell/internal/models"
)

// GridSize is the board dimension. Boards are always square.
const GridSize = 5

// Generator builds grids from a seed so that game replays can reconstruct
// the exact board. The zero value is not usable; call NewGenerator.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns a fresh GridSize x GridSize grid. The same seed always
// yields the same grid.
func (gen *Generator) Generate(seed int64) models.Grid {
	r := rand.New(rand.NewSource(seed))
	cumulative, total := cumulativeDistribution()

	grid := make(models.Grid, GridSize)
	for row := 0; row < GridSize; row++ {
		grid[row] = make([]models.Cell, GridSize)
		for col := 0; col < GridSize; col++ {
			letter := randomLetter(r, cumulative, total)
			grid[row][col] = models.Cell{
				Letter: letter,
				Value:  LetterValue(letter),
			}
		}
	}

	placeMultipliers(r, grid)
	return grid
}

// NewSeed returns a seed for a non-replayed game.
func NewSeed() int64 {
	return time.Now().UnixNano()
}

// randomLetter performs a weighted pick against the cumulative distribution.
func randomLetter(r *rand.Rand, cumulative []float64, total float64) rune {
	v := r.Float64() * total
	for i, c := range cumulative {
		if v <= c {
			return letterFrequencies[i].letter
		}
	}
	return 'E'
}

// placeMultipliers scatters 3-5 double-letter and 2-3 triple-letter bonuses
// over cells that do not already carry one; letter-bonus collisions are
// skipped rather than retried, so those counts are upper bounds. Every grid
// then gets exactly one double-word cell, redrawn until it lands on an
// empty cell.
func placeMultipliers(r *rand.Rand, grid models.Grid) {
	place := func(count int, mult models.Multiplier) {
		for i := 0; i < count; i++ {
			row := r.Intn(GridSize)
			col := r.Intn(GridSize)
			if grid[row][col].Multiplier == "" {
				grid[row][col].Multiplier = mult
			}
		}
	}
	place(3+r.Intn(3), models.DoubleLetter)
	place(2+r.Intn(2), models.TripleLetter)
	for {
		row := r.Intn(GridSize)
		col := r.Intn(GridSize)
		if grid[row][col].Multiplier == "" {
			grid[row][col].Multiplier = models.DoubleWord
			return
		}
	}
}
