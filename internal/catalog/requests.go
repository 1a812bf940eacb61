package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/moviedex/pkg/types"
)

// AddRequest is the payload of an add. Pointer fields distinguish an
// absent value from a zero value.
type AddRequest struct {
	Kind        string          `json:"kind"`
	Title       string          `json:"title" validate:"required"`
	Director    string          `json:"director" validate:"required"`
	Genres      types.GenreList `json:"genres" validate:"required,min=1"`
	ReleaseYear *int            `json:"releaseYear" validate:"required"`
	Duration    *int            `json:"duration" validate:"required"`
	AgeRating   *int            `json:"ageRating" validate:"required"`

	Favourite  *bool `json:"favourite"`
	IsAnimated *bool `json:"isAnimated"`
	Watched    *bool `json:"watched"`

	Topic          string `json:"topic"`
	Documentarian  string `json:"documentarian"`
	MoralLesson    string `json:"moralLesson"`
	ParentalAppeal *int   `json:"parentalAppeal"`

	// Genre is the key used by the legacy /add_movies form. It is only read
	// when Genres is absent.
	Genre types.GenreList `json:"genre" validate:"-"`
}

// common returns the shared fields with absent booleans defaulted to false.
func (r AddRequest) common() types.Common {
	return types.Common{
		Title:       r.Title,
		Director:    r.Director,
		ReleaseYear: deref(r.ReleaseYear),
		Duration:    deref(r.Duration),
		AgeRating:   deref(r.AgeRating),
		Favourite:   deref(r.Favourite),
		IsAnimated:  deref(r.IsAnimated),
		Watched:     deref(r.Watched),
	}
}

// extras returns the variant structs for kind.
func (r AddRequest) extras(kind types.Kind) types.Extras {
	switch kind {
	case types.KindMovie:
		return types.Extras{}
	case types.KindDocumentary:
		return types.Extras{Documentary: &types.Documentary{Topic: r.Topic, Documentarian: r.Documentarian}}
	case types.KindKidMovie:
		return types.Extras{KidMovie: &types.KidMovie{MoralLesson: r.MoralLesson, ParentalAppeal: deref(r.ParentalAppeal)}}
	default:
		return types.Extras{}
	}
}

// Patch lists the fields an update may change. Nil fields are left as
// they are.
type Patch struct {
	Title       *string          `json:"title"`
	Director    *string          `json:"director"`
	Genres      *types.GenreList `json:"genres"`
	ReleaseYear *int             `json:"releaseYear"`
	Duration    *int             `json:"duration"`
	AgeRating   *int             `json:"ageRating"`
	Favourite   *bool            `json:"favourite"`
	IsAnimated  *bool            `json:"isAnimated"`
	Watched     *bool            `json:"watched"`

	Topic          *string `json:"topic"`
	Documentarian  *string `json:"documentarian"`
	MoralLesson    *string `json:"moralLesson"`
	ParentalAppeal *int    `json:"parentalAppeal"`
}

// apply mutates item with the fields present in p. Variant fields are
// applied first and only for the matching kind. On error item may be
// partially modified; callers discard it.
func (p Patch) apply(item *types.Item) error {
	var invalid []string
	setString := func(dst *string, src *string, field string) {
		if src == nil {
			return
		}
		if strings.TrimSpace(*src) == "" {
			invalid = append(invalid, field)
			return
		}
		*dst = *src
	}

	switch item.Kind {
	case types.KindMovie:
	case types.KindDocumentary:
		if item.Documentary == nil {
			item.Documentary = &types.Documentary{}
		}
		setString(&item.Documentary.Topic, p.Topic, "topic")
		setString(&item.Documentary.Documentarian, p.Documentarian, "documentarian")
	case types.KindKidMovie:
		if item.KidMovie == nil {
			item.KidMovie = &types.KidMovie{}
		}
		setString(&item.KidMovie.MoralLesson, p.MoralLesson, "moralLesson")
		if p.ParentalAppeal != nil {
			if *p.ParentalAppeal == 0 {
				invalid = append(invalid, "parentalAppeal")
			} else {
				item.KidMovie.ParentalAppeal = *p.ParentalAppeal
			}
		}
	}

	setString(&item.Title, p.Title, "title")
	setString(&item.Director, p.Director, "director")
	if p.Genres != nil && len(*p.Genres) == 0 {
		invalid = append(invalid, "genres")
	}
	if len(invalid) > 0 {
		return types.NewValidationError("fields must not be empty", invalid...)
	}

	if p.Genres != nil {
		if err := item.SetGenres(*p.Genres); err != nil {
			return err
		}
	}
	if p.ReleaseYear != nil {
		item.ReleaseYear = *p.ReleaseYear
	}
	if p.Duration != nil {
		item.Duration = *p.Duration
	}
	if p.IsAnimated != nil {
		item.IsAnimated = *p.IsAnimated
	}
	if p.AgeRating != nil {
		item.AgeRating = *p.AgeRating
	}
	if p.Watched != nil {
		item.Watched = *p.Watched
	}
	if p.Favourite != nil {
		item.Favourite = *p.Favourite
	}
	return nil
}

// ParseFilter converts query parameters into a Filter. Every malformed
// integer or boolean is reported in one ValidationError.
func ParseFilter(q url.Values) (types.Filter, error) {
	f := types.Filter{
		Title:         q.Get("title"),
		Director:      q.Get("director"),
		Genre:         q.Get("genre"),
		Topic:         q.Get("topic"),
		Documentarian: q.Get("documentarian"),
		MoralLesson:   q.Get("moralLesson"),
	}

	var malformed []string
	parseInt := func(key string) *int {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			malformed = append(malformed, key)
			return nil
		}
		return &v
	}
	parseBool := func(key string) *bool {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			malformed = append(malformed, key)
			return nil
		}
		return &v
	}

	f.AgeRating = parseInt("ageRating")
	f.MaxReleaseYear = parseInt("releaseYear")
	f.MaxDuration = parseInt("duration")
	f.MaxParentalAppeal = parseInt("parentalAppeal")
	f.Favourite = parseBool("favourite")
	f.Watched = parseBool("watched")
	f.IsAnimated = parseBool("isAnimated")

	if len(malformed) > 0 {
		return types.Filter{}, types.NewValidationError("malformed filter values", malformed...)
	}

	if raw := strings.TrimSpace(q.Get("kind")); raw != "" && !strings.EqualFold(raw, "all") {
		kind, err := types.ParseKind(raw)
		if err != nil {
			// An unknown kind filters everything out.
			kind = types.Kind(raw)
		}
		f.Kind = kind
	}
	return f, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
