package types

// Filter narrows a Fetch. Zero-valued fields do not filter; all set fields
// are combined with AND. String fields match case-insensitive substrings.
type Filter struct {
	Title    string
	Director string
	Genre    string // matches any genre in the set

	AgeRating  *int // exact
	Favourite  *bool
	Watched    *bool
	IsAnimated *bool

	MaxReleaseYear *int // releaseYear <= value
	MaxDuration    *int // duration <= value

	Kind Kind // exact; empty means every kind

	Topic             string
	Documentarian     string
	MoralLesson       string
	MaxParentalAppeal *int // parentalAppeal <= value
}

// IsZero reports whether the filter matches every item.
func (f Filter) IsZero() bool {
	return f == Filter{}
}
