// internal/dictionary/dictionary_test.go
package dictionary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNormalizesAndFilters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "words.txt")
	content := "CAT\n  dog  \nA\n\nSpell\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, d.Len(), "single letters and blanks are dropped")
	assert.True(t, d.Contains("cat"))
	assert.True(t, d.Contains("CAT"), "lookup is case-insensitive")
	assert.True(t, d.Contains("dog"))
	assert.True(t, d.Contains("spell"))
	assert.False(t, d.Contains("a"))
	assert.False(t, d.Contains("bird"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestEmptyDictionary(t *testing.T) {
	d := New()
	assert.Equal(t, 0, d.Len())
	assert.False(t, d.Contains("anything"))
}
