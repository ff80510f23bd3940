// internal/board/generator_test.go
package board

import (
	"testing"

	"github.com/spellgrid/gridspell/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDimensions(t *testing.T) {
	grid := NewGenerator().Generate(42)
	require.Len(t, grid, GridSize)
	for _, row := range grid {
		assert.Len(t, row, GridSize)
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	gen := NewGenerator()
	a := gen.Generate(1234)
	b := gen.Generate(1234)
	assert.Equal(t, a, b, "same seed must yield identical grids")

	c := gen.Generate(5678)
	assert.NotEqual(t, a, c, "different seeds should yield different grids")
}

func TestGenerateCellValuesMatchLetters(t *testing.T) {
	grid := NewGenerator().Generate(99)
	for _, row := range grid {
		for _, cell := range row {
			assert.Equal(t, LetterValue(cell.Letter), cell.Value)
		}
	}
}

func TestGenerateMultiplierCounts(t *testing.T) {
	grid := NewGenerator().Generate(7)
	counts := map[models.Multiplier]int{}
	for _, row := range grid {
		for _, cell := range row {
			if cell.Multiplier != "" {
				counts[cell.Multiplier]++
			}
		}
	}
	// Letter-bonus placement skips occupied cells, so those counts are
	// upper bounds; the double-word cell is always placed.
	assert.LessOrEqual(t, counts[models.DoubleLetter], 5)
	assert.LessOrEqual(t, counts[models.TripleLetter], 3)
	assert.Equal(t, 1, counts[models.DoubleWord])
	assert.Greater(t, counts[models.DoubleLetter]+counts[models.TripleLetter], 0)
}

func TestGenerateAlwaysPlacesDoubleWord(t *testing.T) {
	gen := NewGenerator()
	for seed := int64(0); seed < 200; seed++ {
		dw := 0
		for _, row := range gen.Generate(seed) {
			for _, cell := range row {
				if cell.Multiplier == models.DoubleWord {
					dw++
				}
			}
		}
		require.Equalf(t, 1, dw, "seed %d", seed)
	}
}

func TestLetterValue(t *testing.T) {
	assert.Equal(t, 1, LetterValue('E'))
	assert.Equal(t, 2, LetterValue('N'))
	assert.Equal(t, 3, LetterValue('D'))
	assert.Equal(t, 4, LetterValue('B'))
	assert.Equal(t, 5, LetterValue('C'))
	assert.Equal(t, 6, LetterValue('K'))
	assert.Equal(t, 7, LetterValue('X'))
	assert.Equal(t, 8, LetterValue('Q'))
	assert.Equal(t, 8, LetterValue('q'), "lookup is case-insensitive")
	assert.Equal(t, 1, LetterValue('#'), "unknown runes default to 1")
}
