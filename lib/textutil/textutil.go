package textutil

import (
	"strings"

	"github.com/gosimple/slug"
)

// NormalizeKey canonicalizes a display name into the key used to join
// drops and games across api responses that disagree on identifiers.
func NormalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var slugReplacer = strings.NewReplacer(
	":", "",
	"'", "",
	"&", "and",
)

// GameSlug converts a game display name into its twitch directory
// category slug, e.g. "Vampire: The Masquerade - Bloodhunt" becomes
// "vampire-the-masquerade-bloodhunt".
func GameSlug(name string) string {
	if name == "" {
		return ""
	}
	return slug.Make(slugReplacer.Replace(name))
}
