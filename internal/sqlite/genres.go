package sqlite

import (
	"encoding/json"
	"strings"
)

// encodeGenres renders a genre set as the JSON array stored in
// items.genres. A nil set encodes as "[]".
func encodeGenres(genres []string) (string, error) {
	if genres == nil {
		genres = []string{}
	}
	data, err := json.Marshal(genres)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeGenres parses items.genres. Corrupt text, non-array JSON and
// non-string or blank elements are dropped rather than failing the read.
func decodeGenres(raw string) []string {
	var elems []any
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return []string{}
	}
	genres := make([]string, 0, len(elems))
	for _, e := range elems {
		s, ok := e.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		genres = append(genres, s)
	}
	return genres
}
