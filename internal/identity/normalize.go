// Package identity canonicalizes student display names so they can be
// compared against directory lookup results.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize removes combining diacritical marks from a lowercase name and
// folds "ñ" to "n". The input is returned unchanged except for those folds;
// malformed input falls back to the ñ fold alone.
func Normalize(name string) string {
	// A chain carries internal buffers, so build one per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, name)
	if err != nil {
		stripped = name
	}
	return strings.ReplaceAll(stripped, "ñ", "n")
}
