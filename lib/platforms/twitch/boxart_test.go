package twitch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatBoxArtURL(t *testing.T) {
	require.Equal(
		t,
		"https://static-cdn.jtvnw.net/ttv-boxart/12345-80x107.jpg",
		FormatBoxArtURL("https://static-cdn.jtvnw.net/ttv-boxart/12345-{width}x{height}.jpg"),
	)
	require.Equal(t, "", FormatBoxArtURL(""))
	// urls without placeholders pass through untouched
	require.Equal(t, "https://example.com/a.jpg", FormatBoxArtURL("https://example.com/a.jpg"))
}

func TestBenefitNameFallback(t *testing.T) {
	drop := TimeBasedDrop{Name: "internal-drop-name"}
	require.Equal(t, "internal-drop-name", drop.BenefitName())
	require.Equal(t, "", drop.BenefitImage())

	drop.BenefitEdges = []BenefitEdge{{Benefit: Benefit{
		Name:          "Shiny Skin",
		ImageAssetURL: "https://example.com/skin.png",
	}}}
	require.Equal(t, "Shiny Skin", drop.BenefitName())
	require.Equal(t, "https://example.com/skin.png", drop.BenefitImage())
}

func TestCampaignGameNameFallback(t *testing.T) {
	campaign := RawCampaign{Name: "Some Campaign"}
	require.Equal(t, "Some Campaign", campaign.GameName())
	require.Equal(t, "", campaign.OwnerName())

	campaign.Game = &Game{DisplayName: "Some Game"}
	campaign.Owner = &Owner{Name: "Some Publisher"}
	require.Equal(t, "Some Game", campaign.GameName())
	require.Equal(t, "Some Publisher", campaign.OwnerName())
}
