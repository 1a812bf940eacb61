package types

import (
	"encoding/json"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCommon() Common {
	return Common{
		Title:       "Spirited Away",
		Director:    "Hayao Miyazaki",
		ReleaseYear: 2001,
		Duration:    125,
		AgeRating:   7,
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "movie", want: KindMovie},
		{in: "Documentary", want: KindDocumentary},
		{in: "kidMovie", want: KindKidMovie},
		{in: "KIDMOVIE", want: KindKidMovie},
		{in: "series", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewItem(t *testing.T) {
	tests := []struct {
		name       string
		kind       Kind
		common     func() Common
		extras     Extras
		wantFields []string
	}{
		{
			name:   "movie needs no extras",
			kind:   KindMovie,
			common: validCommon,
		},
		{
			name:   "documentary with extras",
			kind:   KindDocumentary,
			common: validCommon,
			extras: Extras{Documentary: &Documentary{Topic: "Oceans", Documentarian: "Attenborough"}},
		},
		{
			name:       "documentary missing topic",
			kind:       KindDocumentary,
			common:     validCommon,
			extras:     Extras{Documentary: &Documentary{Documentarian: "Attenborough"}},
			wantFields: []string{"topic"},
		},
		{
			name:       "documentary without extras struct",
			kind:       KindDocumentary,
			common:     validCommon,
			wantFields: []string{"topic", "documentarian"},
		},
		{
			name:   "kid movie with extras",
			kind:   KindKidMovie,
			common: validCommon,
			extras: Extras{KidMovie: &KidMovie{MoralLesson: "Be kind", ParentalAppeal: 3}},
		},
		{
			name:       "kid movie with zero parental appeal",
			kind:       KindKidMovie,
			common:     validCommon,
			extras:     Extras{KidMovie: &KidMovie{MoralLesson: "Be kind"}},
			wantFields: []string{"parentalAppeal"},
		},
		{
			name: "blank title and director",
			kind: KindMovie,
			common: func() Common {
				c := validCommon()
				c.Title = "  "
				c.Director = ""
				return c
			},
			wantFields: []string{"title", "director"},
		},
		{
			name:       "unknown kind",
			kind:       Kind("series"),
			common:     validCommon,
			wantFields: []string{"kind"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewItem(tt.kind, tt.common(), tt.extras)
			if tt.wantFields != nil {
				require.Error(t, err)
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, tt.wantFields, verr.Fields)
				assert.Nil(t, item)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, item.Kind)
			assert.Empty(t, item.Genres())
		})
	}
}

func TestNewItemIgnoresOtherVariant(t *testing.T) {
	item, err := NewItem(KindMovie, validCommon(), Extras{
		Documentary: &Documentary{Topic: "x", Documentarian: "y"},
		KidMovie:    &KidMovie{MoralLesson: "z", ParentalAppeal: 1},
	})
	require.NoError(t, err)
	assert.Nil(t, item.Documentary)
	assert.Nil(t, item.KidMovie)
}

func wireKeys(t *testing.T, w Wire) []string {
	t.Helper()
	data, err := json.Marshal(w)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestToWireFieldsPerKind(t *testing.T) {
	common := []string{
		"ageRating", "director", "duration", "favourite", "genres", "id",
		"isAnimated", "kind", "releaseYear", "title", "watched",
	}
	withExtra := func(extra ...string) []string {
		keys := append(append([]string{}, common...), extra...)
		sort.Strings(keys)
		return keys
	}

	tests := []struct {
		name   string
		kind   Kind
		extras Extras
		want   []string
	}{
		{name: "movie", kind: KindMovie, want: withExtra()},
		{
			name:   "documentary",
			kind:   KindDocumentary,
			extras: Extras{Documentary: &Documentary{Topic: "Space", Documentarian: "Sagan"}},
			want:   withExtra("topic", "documentarian"),
		},
		{
			name:   "kid movie",
			kind:   KindKidMovie,
			extras: Extras{KidMovie: &KidMovie{MoralLesson: "Share", ParentalAppeal: 2}},
			want:   withExtra("moralLesson", "parentalAppeal"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewItem(tt.kind, validCommon(), tt.extras)
			require.NoError(t, err)
			require.NoError(t, item.SetGenres([]string{"Animation"}))
			assert.Equal(t, tt.want, wireKeys(t, item.ToWire()))
		})
	}
}

func TestToWireKidMovieValues(t *testing.T) {
	item, err := NewItem(KindKidMovie, validCommon(), Extras{KidMovie: &KidMovie{MoralLesson: "Be kind", ParentalAppeal: 3}})
	require.NoError(t, err)
	item.ID = 42

	w := item.ToWire()
	assert.Equal(t, int64(42), w.ID)
	assert.Equal(t, KindKidMovie, w.Kind)
	require.NotNil(t, w.MoralLesson)
	require.NotNil(t, w.ParentalAppeal)
	assert.Equal(t, "Be kind", *w.MoralLesson)
	assert.Equal(t, 3, *w.ParentalAppeal)
	assert.Equal(t, []string{}, w.Genres)
}

func TestCloneIsDeep(t *testing.T) {
	item, err := NewItem(KindDocumentary, validCommon(), Extras{Documentary: &Documentary{Topic: "Bees", Documentarian: "Jones"}})
	require.NoError(t, err)
	require.NoError(t, item.SetGenres([]string{"Nature"}))

	c := item.Clone()
	c.Documentary.Topic = "Wasps"
	require.NoError(t, c.SetGenres([]string{"Science"}))

	assert.Equal(t, "Bees", item.Documentary.Topic)
	assert.Equal(t, []string{"Nature"}, item.Genres())
}
