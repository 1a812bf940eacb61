package types

import "strings"

// Kind discriminates the item variants.
type Kind string

// Item kinds.
const (
	KindMovie       Kind = "movie"
	KindDocumentary Kind = "documentary"
	KindKidMovie    Kind = "kidMovie"
)

// Kinds lists every recognized kind in declaration order.
var Kinds = []Kind{KindMovie, KindDocumentary, KindKidMovie}

// ParseKind resolves s to a Kind, ignoring case.
// Returns a ValidationError naming "kind" if s is not recognized.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", NewValidationError("invalid kind", "kind")
}

// Documentary holds the fields required by KindDocumentary.
type Documentary struct {
	Topic         string
	Documentarian string
}

// KidMovie holds the fields required by KindKidMovie.
type KidMovie struct {
	MoralLesson    string
	ParentalAppeal int
}

// Common holds the fields every kind carries.
type Common struct {
	Title       string
	Director    string
	ReleaseYear int
	Duration    int // minutes
	AgeRating   int
	Favourite   bool
	IsAnimated  bool
	Watched     bool
}

// Extras carries the variant structs passed to NewItem. Only the one
// matching the item kind is read.
type Extras struct {
	Documentary *Documentary
	KidMovie    *KidMovie
}

// Item is one catalog entry. Exactly one of Documentary and KidMovie is
// non-nil for the documentary and kidMovie kinds; both are nil for movies.
type Item struct {
	ID   int64
	Kind Kind
	Common

	Documentary *Documentary
	KidMovie    *KidMovie

	genres []string
}

// NewItem builds an unsaved item of the given kind. Genres are left unset;
// call SetGenres before persisting.
func NewItem(kind Kind, common Common, extras Extras) (*Item, error) {
	var missing []string
	if strings.TrimSpace(common.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(common.Director) == "" {
		missing = append(missing, "director")
	}

	item := &Item{Kind: kind, Common: common}

	switch kind {
	case KindMovie:
	case KindDocumentary:
		d := extras.Documentary
		if d == nil {
			d = &Documentary{}
		}
		if strings.TrimSpace(d.Topic) == "" {
			missing = append(missing, "topic")
		}
		if strings.TrimSpace(d.Documentarian) == "" {
			missing = append(missing, "documentarian")
		}
		item.Documentary = &Documentary{Topic: d.Topic, Documentarian: d.Documentarian}
	case KindKidMovie:
		k := extras.KidMovie
		if k == nil {
			k = &KidMovie{}
		}
		if strings.TrimSpace(k.MoralLesson) == "" {
			missing = append(missing, "moralLesson")
		}
		if k.ParentalAppeal == 0 {
			missing = append(missing, "parentalAppeal")
		}
		item.KidMovie = &KidMovie{MoralLesson: k.MoralLesson, ParentalAppeal: k.ParentalAppeal}
	default:
		return nil, NewValidationError("invalid kind", "kind")
	}

	if len(missing) > 0 {
		return nil, NewValidationError("missing required fields", missing...)
	}
	return item, nil
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	c := *it
	if it.Documentary != nil {
		d := *it.Documentary
		c.Documentary = &d
	}
	if it.KidMovie != nil {
		k := *it.KidMovie
		c.KidMovie = &k
	}
	c.genres = append([]string(nil), it.genres...)
	return &c
}

// Wire is the camelCase JSON projection of an Item. Variant fields are
// omitted for kinds that do not carry them.
type Wire struct {
	ID          int64    `json:"id"`
	Kind        Kind     `json:"kind"`
	Title       string   `json:"title"`
	Director    string   `json:"director"`
	Genres      []string `json:"genres"`
	ReleaseYear int      `json:"releaseYear"`
	Duration    int      `json:"duration"`
	AgeRating   int      `json:"ageRating"`
	Favourite   bool     `json:"favourite"`
	IsAnimated  bool     `json:"isAnimated"`
	Watched     bool     `json:"watched"`

	Topic          *string `json:"topic,omitempty"`
	Documentarian  *string `json:"documentarian,omitempty"`
	MoralLesson    *string `json:"moralLesson,omitempty"`
	ParentalAppeal *int    `json:"parentalAppeal,omitempty"`
}

// ToWire projects the item to its wire representation.
func (it *Item) ToWire() Wire {
	w := Wire{
		ID:          it.ID,
		Kind:        it.Kind,
		Title:       it.Title,
		Director:    it.Director,
		Genres:      it.Genres(),
		ReleaseYear: it.ReleaseYear,
		Duration:    it.Duration,
		AgeRating:   it.AgeRating,
		Favourite:   it.Favourite,
		IsAnimated:  it.IsAnimated,
		Watched:     it.Watched,
	}

	switch it.Kind {
	case KindMovie:
	case KindDocumentary:
		if d := it.Documentary; d != nil {
			topic, documentarian := d.Topic, d.Documentarian
			w.Topic = &topic
			w.Documentarian = &documentarian
		}
	case KindKidMovie:
		if k := it.KidMovie; k != nil {
			lesson, appeal := k.MoralLesson, k.ParentalAppeal
			w.MoralLesson = &lesson
			w.ParentalAppeal = &appeal
		}
	}
	return w
}
