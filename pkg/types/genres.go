package types

import (
	"encoding/json"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeGenre trims and NFC-normalizes a genre so that visually equal
// names collapse to one set member.
func normalizeGenre(g string) string {
	return norm.NFC.String(strings.TrimSpace(g))
}

// SetGenres replaces the genre set with the deduplicated input.
// Returns a ValidationError naming "genres" if any entry is blank; the
// current genres are left untouched in that case.
func (it *Item) SetGenres(genres []string) error {
	set := make([]string, 0, len(genres))
	for _, g := range genres {
		n := normalizeGenre(g)
		if n == "" {
			return NewValidationError("genres must be non-empty strings", "genres")
		}
		if !slices.Contains(set, n) {
			set = append(set, n)
		}
	}
	slices.Sort(set)
	it.genres = set
	return nil
}

// Genres returns the genre set sorted by name. The result is never nil.
func (it *Item) Genres() []string {
	if len(it.genres) == 0 {
		return []string{}
	}
	return slices.Clone(it.genres)
}

// AddGenre adds one genre to the set. Adding an existing genre is a no-op.
func (it *Item) AddGenre(genre string) error {
	return it.SetGenres(append(it.Genres(), genre))
}

// GenreList is the wire form of a genre list. Decoding fails with a
// ValidationError naming "genres" when an element is not a JSON string.
type GenreList []string

// UnmarshalJSON implements json.Unmarshaler.
func (g *GenreList) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewValidationError("genres must be a list of strings", "genres")
	}
	if raw == nil {
		*g = nil
		return nil
	}
	out := make(GenreList, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return NewValidationError("all genres must be strings", "genres")
		}
		out = append(out, s)
	}
	*g = out
	return nil
}
