package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var genreFolder = cases.Fold()

// GenreKey canonicalises a genre name so "Sci-Fi", "sci-fi" and " SCI-FI "
// compare equal. The display form in Movie.Genres is never rewritten.
func GenreKey(genre string) string {
	return genreFolder.String(norm.NFC.String(strings.TrimSpace(genre)))
}

// GenreSet returns the canonical keys of genres. Empty names are dropped.
func GenreSet(genres []string) map[string]struct{} {
	set := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		if key := GenreKey(g); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// GenreKeys returns the canonical keys of genres in input order, without duplicates.
func GenreKeys(genres []string) []string {
	seen := make(map[string]struct{}, len(genres))
	keys := make([]string, 0, len(genres))
	for _, g := range genres {
		key := GenreKey(g)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// SharedGenres counts how many of the canonical genres in set appear in genres.
func SharedGenres(set map[string]struct{}, genres []string) int {
	shared := 0
	for key := range GenreSet(genres) {
		if _, ok := set[key]; ok {
			shared++
		}
	}
	return shared
}

// SameDirector compares director names case-insensitively. Unknown
// directors never match.
func SameDirector(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return GenreKey(a) == GenreKey(b)
}
