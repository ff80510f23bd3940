// internal/models/grid.go
package models

import (
	"encoding/json"
	"fmt"
)

// Multiplier marks a bonus cell on the board.
type Multiplier string

const (
	DoubleLetter Multiplier = "DL"
	TripleLetter Multiplier = "TL"
	DoubleWord   Multiplier = "DW"
)

// Cell is a single board tile: its letter, base point value, and optional bonus.
type Cell struct {
	Letter     rune       `json:"-"`
	Value      int        `json:"value"`
	Multiplier Multiplier `json:"multiplier,omitempty"`
}

// MarshalJSON emits the letter as a one-character string so clients don't
// have to deal with rune code points.
func (c Cell) MarshalJSON() ([]byte, error) {
	mult := ""
	if c.Multiplier != "" {
		mult = fmt.Sprintf(`,"multiplier":%q`, c.Multiplier)
	}
	return []byte(fmt.Sprintf(`{"letter":%q,"value":%d%s}`, string(c.Letter), c.Value, mult)), nil
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw struct {
		Letter     string     `json:"letter"`
		Value      int        `json:"value"`
		Multiplier Multiplier `json:"multiplier"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Letter) == 0 {
		return fmt.Errorf("grid cell missing letter")
	}
	c.Letter = []rune(raw.Letter)[0]
	c.Value = raw.Value
	c.Multiplier = raw.Multiplier
	return nil
}

// Grid is the immutable board for one round. Indexed [row][col].
type Grid [][]Cell

// Size returns the grid dimension (grids are square).
func (g Grid) Size() int {
	return len(g)
}

// InBounds reports whether pos addresses a real cell.
func (g Grid) InBounds(pos Position) bool {
	return pos.Row >= 0 && pos.Row < len(g) && pos.Col >= 0 && pos.Col < len(g[pos.Row])
}

// At returns the cell at pos. Callers must bounds-check first.
func (g Grid) At(pos Position) Cell {
	return g[pos.Row][pos.Col]
}

// Position addresses one grid cell.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Adjacent reports whether two positions touch, including diagonals.
// A position is not adjacent to itself.
func (p Position) Adjacent(other Position) bool {
	rowDiff := absInt(p.Row - other.Row)
	colDiff := absInt(p.Col - other.Col)
	return rowDiff <= 1 && colDiff <= 1 && (rowDiff+colDiff > 0)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
