package sqlite

import (
	"strings"

	"github.com/mesh-intelligence/moviedex/pkg/types"
)

// likeEscaper escapes LIKE wildcards so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern returns a LIKE pattern matching any value that contains s.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// where renders filter as an AND-joined condition with ? placeholders.
// Returns an empty string when the filter matches every row.
func (d dialect) where(f types.Filter) (string, []any) {
	var conditions []string
	var args []any

	contains := func(column, value string) {
		if value == "" {
			return
		}
		conditions = append(conditions, d.folded(column)+" "+d.like+" "+d.folded("?")+` ESCAPE '\'`)
		args = append(args, containsPattern(value))
	}
	equals := func(column string, value any) {
		conditions = append(conditions, column+" = ?")
		args = append(args, value)
	}
	atMost := func(column string, value int) {
		conditions = append(conditions, column+" <= ?")
		args = append(args, value)
	}

	contains("title", f.Title)
	contains("director", f.Director)
	if f.Genre != "" {
		conditions = append(conditions, d.genreMatch)
		args = append(args, containsPattern(f.Genre))
	}

	if f.AgeRating != nil {
		equals("age_rating", *f.AgeRating)
	}
	if f.Favourite != nil {
		equals("favourite", *f.Favourite)
	}
	if f.Watched != nil {
		equals("watched", *f.Watched)
	}
	if f.IsAnimated != nil {
		equals("is_animated", *f.IsAnimated)
	}
	if f.MaxReleaseYear != nil {
		atMost("release_year", *f.MaxReleaseYear)
	}
	if f.MaxDuration != nil {
		atMost("duration", *f.MaxDuration)
	}
	if f.Kind != "" {
		equals("kind", string(f.Kind))
	}

	contains("topic", f.Topic)
	contains("documentarian", f.Documentarian)
	contains("moral_lesson", f.MoralLesson)
	if f.MaxParentalAppeal != nil {
		atMost("parental_appeal", *f.MaxParentalAppeal)
	}

	return strings.Join(conditions, " AND "), args
}
