// internal/dictionary/dictionary.go

// Package dictionary holds the word list used to validate submissions.
// The list is loaded once at startup and is read-only for the lifetime of
// the process, so lookups need no locking.
package dictionary

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
)

// Dictionary answers "is this a legal word?" in O(1).
type Dictionary struct {
	words map[string]struct{}
}

// Load reads one word per line from path, normalizing to lower case and
// dropping entries shorter than two letters.
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary %s: %w", path, err)
	}
	defer f.Close()

	words := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if len(word) < 2 {
			continue
		}
		words[word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}

	log.Printf("Loaded %d words from %s", len(words), path)
	return &Dictionary{words: words}, nil
}

// New builds a dictionary from an explicit word list. Used in tests and as
// the empty fallback when no word file is available.
func New(words ...string) *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			d.words[w] = struct{}{}
		}
	}
	return d
}

// Contains reports whether the word is legal. The lookup is
// case-insensitive.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.words[strings.ToLower(word)]
	return ok
}

// Len returns the number of loaded words.
func (d *Dictionary) Len() int {
	return len(d.words)
}
