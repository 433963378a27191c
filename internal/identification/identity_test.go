package identification

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseIdentity(t *testing.T) {
	id := ParseIdentity("JP's Metallica Pro (Stern 2013)")
	require.Equal(t, "Metallica Pro", id.Title)
	require.Equal(t, "metallica pro", id.Normalized)
	require.Equal(t, "Stern", id.Manufacturer)
	require.Equal(t, 2013, id.Year)
	require.Equal(t, "JP", id.Author)
	require.Equal(t, "Pro", id.Edition)
	require.Empty(t, id.ROM)
}

func TestParseIdentityYearOnly(t *testing.T) {
	id := ParseIdentity("Fish Tales (1992)")
	require.Equal(t, "Fish Tales", id.Title)
	require.Empty(t, id.Manufacturer)
	require.Equal(t, 1992, id.Year)
}

func TestParseIdentityCommaSeparated(t *testing.T) {
	id := ParseIdentity("Fish Tales (Williams, 1992)")
	require.Equal(t, "Williams", id.Manufacturer)
	require.Equal(t, 1992, id.Year)
}

func TestTitleFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tables/attack_from_mars.vpx", "Attack From Mars"},
		{"/tables/JP's Metallica Pro (Stern 2013).vpx", "JP's Metallica Pro (Stern 2013)"},
		{"Twilight Zone_VPW.vpx", "Twilight Zone VPW"},
		{"", ""},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, TitleFromPath(tc.path), tc.path)
	}
}
