package twitch

import "strings"

const (
	boxArtWidth  = "80"
	boxArtHeight = "107"
)

// FormatBoxArtURL resolves the size placeholders the api leaves in box
// art urls, e.g. ".../game-{width}x{height}.jpg".
func FormatBoxArtURL(url string) string {
	if url == "" {
		return ""
	}
	url = strings.Replace(url, "{width}", boxArtWidth, 1)
	url = strings.Replace(url, "{height}", boxArtHeight, 1)
	return url
}
