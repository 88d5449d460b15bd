package pool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gametypes "github.com/wordgame/fictionary/pkg/game/types"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	wikipedia := "Alpha\tabc\n" +
		"Tooshort\tab\n" +
		"Toolong\tabcdefgh\n" +
		"Beta\tbeta\n"
	ascii := "Gamma\tgamma\tGamma is a thing.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wikipedia.txt"), []byte(wikipedia), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ascii.txt"), []byte(ascii), 0644))

	p, err := Load(dir)
	require.NoError(t, err)

	// Readings outside the playable length range are dropped.
	assert.Equal(t, 3, p.Len())

	c, ok := p.FindByReading("gamma")
	require.True(t, ok)
	assert.Equal(t, "Gamma", c.Word)
	assert.Equal(t, "ascii", c.Source)
	assert.Equal(t, "Gamma is a thing.", c.RawMeaning)

	_, ok = p.FindByReading("ab")
	assert.False(t, ok)
}

func TestLoad_emptyCorpusFails(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestSample_returnsDistinctCandidates(t *testing.T) {
	p := New([]gametypes.Candidate{
		{Word: "A", Reading: "aaa"},
		{Word: "B", Reading: "bbb"},
		{Word: "C", Reading: "ccc"},
	})

	sample := p.Sample(10)
	assert.Len(t, sample, 3)

	seen := make(map[string]bool)
	for _, c := range sample {
		assert.False(t, seen[c.Word])
		seen[c.Word] = true
	}
}

func TestNearestReading(t *testing.T) {
	p := New([]gametypes.Candidate{
		{Word: "Exact", Reading: "abc"},
		{Word: "Close", Reading: "abd"},
		{Word: "Far", Reading: "xyz"},
	})

	// Zero-distance readings are skipped; the closest distinct reading wins.
	c, ok := p.NearestReading("abc", "Exact")
	require.True(t, ok)
	assert.Equal(t, "Close", c.Word)

	// The excluded word never comes back.
	c, ok = p.NearestReading("abd", "Close")
	require.True(t, ok)
	assert.Equal(t, "Exact", c.Word)
}

func TestNormalizeMeaning(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips headings and parens",
			input: "== Term ==(an aside) a device for work",
			want:  "Term a device for work",
		},
		{
			name:  "cuts everything after the first full stop",
			input: "A tool for weaving。Invented long ago。",
			want:  "A tool for weaving",
		},
		{
			name:  "drops a leading entry label",
			input: "widget - a small gadget",
			want:  "a small gadget",
		},
		{
			name:  "trims surrounding whitespace",
			input: "  padded  ",
			want:  "padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMeaning(tt.input))
		})
	}
}
