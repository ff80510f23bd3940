// internal/game/score.go
package game

import (
	"strings"

	"github.com/spellgrid/gridspell/internal/models"
)

// lengthBonusThreshold is the minimum path length that earns the flat bonus.
const lengthBonusThreshold = 6

// lengthBonusPoints is the flat bonus for long words. It is added after any
// double-word multiplier, so it is never itself doubled.
const lengthBonusPoints = 10

// Evaluate maps a selected tile path and grid to the word it spells and its
// point value. It is pure: identical inputs always yield identical outputs.
// Callers are responsible for validating the path first; Evaluate assumes
// every position is in bounds.
//
// Scoring:
//   - each letter contributes its base value, doubled on a DL cell and
//     tripled on a TL cell
//   - a DW cell anywhere in the path doubles the letter sum (after the
//     per-letter multipliers)
//   - paths of length >= 6 earn a flat +10 after the doubling
func Evaluate(path []models.Position, grid models.Grid) (string, int) {
	var word strings.Builder
	letterSum := 0
	hasDoubleWord := false

	for _, pos := range path {
		cell := grid.At(pos)
		word.WriteRune(cell.Letter)

		letterScore := cell.Value
		switch cell.Multiplier {
		case models.DoubleLetter:
			letterScore *= 2
		case models.TripleLetter:
			letterScore *= 3
		case models.DoubleWord:
			hasDoubleWord = true
		}
		letterSum += letterScore
	}

	points := letterSum
	if hasDoubleWord {
		points *= 2
	}
	if len(path) >= lengthBonusThreshold {
		points += lengthBonusPoints
	}

	return strings.ToLower(word.String()), points
}
