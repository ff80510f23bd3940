// internal/board/letters.go
package board

// letterValues holds the per-letter base point values used for scoring.
var letterValues = map[rune]int{
	'A': 1, 'E': 1, 'I': 1, 'O': 1,
	'N': 2, 'R': 2, 'S': 2, 'T': 2,
	'D': 3, 'G': 3, 'L': 3,
	'B': 4, 'H': 4, 'M': 4, 'P': 4, 'U': 4, 'Y': 4,
	'C': 5, 'F': 5, 'V': 5, 'W': 5,
	'K': 6,
	'J': 7, 'X': 7,
	'Q': 8, 'Z': 8,
}

// letterFrequencies is an approximate English letter distribution used for
// weighted random letter picks during grid generation.
var letterFrequencies = []struct {
	letter rune
	weight float64
}{
	{'E', 12.70}, {'T', 9.05}, {'A', 8.16}, {'O', 7.50}, {'I', 6.96},
	{'N', 6.74}, {'S', 6.32}, {'H', 6.09}, {'R', 5.98}, {'D', 4.25},
	{'L', 4.02}, {'C', 2.78}, {'U', 2.75}, {'M', 2.40}, {'W', 2.36},
	{'F', 2.22}, {'G', 2.01}, {'Y', 1.97}, {'P', 1.92}, {'B', 1.49},
	{'V', 0.97}, {'K', 0.77}, {'J', 0.15}, {'X', 0.15}, {'Q', 0.09},
	{'Z', 0.07},
}

// LetterValue returns the base point value for a letter, case-insensitively.
// Unknown runes score 1 so a malformed grid never panics the scorer.
func LetterValue(letter rune) int {
	upper := letter
	if letter >= 'a' && letter <= 'z' {
		upper = letter - ('a' - 'A')
	}
	if v, ok := letterValues[upper]; ok {
		return v
	}
	return 1
}

// cumulativeDistribution precomputes running weight totals for weighted picks.
func cumulativeDistribution() ([]float64, float64) {
	cumulative := make([]float64, len(letterFrequencies))
	total := 0.0
	for i, lf := range letterFrequencies {
		total += lf.weight
		cumulative[i] = total
	}
	return cumulative, total
}
