// internal/game/score_test.go
package game

import (
	"testing"

	"github.com/spellgrid/gridspell/internal/models"
	"github.com/stretchr/testify/assert"
)

// rowGrid builds a single-row grid from cells, padded into a models.Grid.
func rowGrid(cells ...models.Cell) models.Grid {
	return models.Grid{cells}
}

func rowPath(n int) []models.Position {
	path := make([]models.Position, n)
	for i := range path {
		path[i] = models.Position{Row: 0, Col: i}
	}
	return path
}

func TestEvaluatePlainWord(t *testing.T) {
	grid := rowGrid(
		models.Cell{Letter: 'C', Value: 3},
		models.Cell{Letter: 'A', Value: 1},
		models.Cell{Letter: 'T', Value: 1},
	)

	word, points := Evaluate(rowPath(3), grid)
	assert.Equal(t, "cat", word)
	assert.Equal(t, 5, points, "no multipliers, no bonus for length 3")
}

func TestEvaluateLetterMultipliers(t *testing.T) {
	grid := rowGrid(
		models.Cell{Letter: 'H', Value: 4},
		models.Cell{Letter: 'E', Value: 1, Multiplier: models.DoubleLetter},
		models.Cell{Letter: 'X', Value: 7, Multiplier: models.TripleLetter},
	)

	word, points := Evaluate(rowPath(3), grid)
	assert.Equal(t, "hex", word)
	assert.Equal(t, 4+2+21, points)
}

func TestEvaluateDoubleWordDoublesLetterSum(t *testing.T) {
	grid := rowGrid(
		models.Cell{Letter: 'C', Value: 5, Multiplier: models.DoubleWord},
		models.Cell{Letter: 'A', Value: 1},
		models.Cell{Letter: 'T', Value: 2},
	)

	_, points := Evaluate(rowPath(3), grid)
	assert.Equal(t, 16, points, "DW doubles the total, not the single letter")
}

func TestEvaluateLengthBonusNotDoubled(t *testing.T) {
	// Six letters summing to 20 with one DW: 20*2 + 10 = 50.
	grid := rowGrid(
		models.Cell{Letter: 'S', Value: 5, Multiplier: models.DoubleWord},
		models.Cell{Letter: 'P', Value: 3},
		models.Cell{Letter: 'E', Value: 3},
		models.Cell{Letter: 'L', Value: 3},
		models.Cell{Letter: 'L', Value: 3},
		models.Cell{Letter: 'S', Value: 3},
	)

	_, points := Evaluate(rowPath(6), grid)
	assert.Equal(t, 50, points)
}

func TestEvaluateLengthBonusWithoutDoubleWord(t *testing.T) {
	cells := make([]models.Cell, 6)
	for i := range cells {
		cells[i] = models.Cell{Letter: 'E', Value: 1}
	}
	_, points := Evaluate(rowPath(6), rowGrid(cells...))
	assert.Equal(t, 16, points, "6 letters at 1 point plus the flat bonus")

	_, points = Evaluate(rowPath(5), rowGrid(cells...))
	assert.Equal(t, 5, points, "no bonus below six letters")
}

func TestEvaluateDeterministic(t *testing.T) {
	grid := rowGrid(
		models.Cell{Letter: 'D', Value: 3, Multiplier: models.DoubleLetter},
		models.Cell{Letter: 'O', Value: 1},
		models.Cell{Letter: 'G', Value: 3, Multiplier: models.DoubleWord},
	)
	path := rowPath(3)

	word1, points1 := Evaluate(path, grid)
	word2, points2 := Evaluate(path, grid)
	assert.Equal(t, word1, word2)
	assert.Equal(t, points1, points2)
}
