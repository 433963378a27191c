package identification

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCandidatesMetallicaExample(t *testing.T) {
	keys := Candidates("JP's Metallica Pro (Stern 2013)")
	require.NotEmpty(t, keys)
	require.Equal(t, "jp's metallica pro (stern 2013)", keys[0])
	require.Contains(t, keys, "metallica (jp)")
	require.Contains(t, keys, "metallica")
	require.Contains(t, keys, "metallica pro")
}

func TestCandidatesDeduplicated(t *testing.T) {
	keys := Candidates("Attack From Mars")
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		require.False(t, seen[key], "duplicate key %q", key)
		seen[key] = true
	}
}

func TestCandidatesRewrites(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"plural toggle", "Attack From Mars", []string{"attack from mars", "attack from mar"}},
		{"plural added", "Elvira and the Party Monster", []string{"elvira and the party monsters"}},
		{"article added", "Addams Family", []string{"the addams family"}},
		{"article removed", "The Addams Family", []string{"addams family"}},
		{"hyphen joined", "Spider-Man Vault Edition", []string{"spiderman", "spider man"}},
		{"version dropped", "Medieval Madness v1.2", []string{"medieval madness"}},
		{"group prefix", "VPW Twilight Zone", []string{"twilight zone", "twilight zone (vpw)"}},
		{"accents folded", "Pokémon", []string{"pokemon"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			keys := Candidates(tc.raw)
			for _, want := range tc.want {
				require.Contains(t, keys, want)
			}
		})
	}
}

func TestCandidatesEmpty(t *testing.T) {
	require.Empty(t, Candidates("   "))
}

func TestStripEditionSuffix(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		changed bool
	}{
		{"Metallica Pro (Stern 2013)", "Metallica (Stern 2013)", true},
		{"Metallica Premium VR", "Metallica", true},
		{"Godzilla LE", "Godzilla", true},
		{"Star Wars - Special Edition", "Star Wars", true},
		{"Apollo 13", "Apollo 13", false},
		{"Castle", "Castle", false},
		{"Pro", "Pro", false},
	}
	for _, tc := range tests {
		got, changed := StripEditionSuffix(tc.in)
		require.Equal(t, tc.want, got, tc.in)
		require.Equal(t, tc.changed, changed, tc.in)
	}
}

func TestSplitAuthorPrefix(t *testing.T) {
	author, rest, ok := SplitAuthorPrefix("JP's Star Wars")
	require.True(t, ok)
	require.Equal(t, "JP", author)
	require.Equal(t, "Star Wars", rest)

	_, rest, ok = SplitAuthorPrefix("Star Wars")
	require.False(t, ok)
	require.Equal(t, "Star Wars", rest)
}
