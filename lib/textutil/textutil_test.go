package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	require.Equal(t, "rust", NormalizeKey("  Rust "))
	require.Equal(t, "sea of thieves", NormalizeKey("Sea of Thieves"))
	require.Equal(t, "", NormalizeKey(""))
	require.Equal(t, "", NormalizeKey("   "))
}

func TestGameSlug(t *testing.T) {
	require.Equal(
		t,
		"vampire-the-masquerade-bloodhunt",
		GameSlug("Vampire: The Masquerade - Bloodhunt"),
	)
	require.Equal(t, "tom-clancys-the-division-2", GameSlug("Tom Clancy's The Division 2"))
	require.Equal(t, "rainbow-six-siege", GameSlug("Rainbow Six: Siege"))
	require.Equal(t, "dungeons-and-dragons", GameSlug("Dungeons & Dragons"))
	require.Equal(t, "", GameSlug(""))
}
