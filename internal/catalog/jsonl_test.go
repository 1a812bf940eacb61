package catalog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/moviedex/pkg/types"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestService(t)
	ctx := context.Background()

	mustAdd(t, src, "movie", movieRequest("Heat", "Crime", "Drama"))
	doc := movieRequest("Cosmos", "Science")
	doc.Topic = "Space"
	doc.Documentarian = "Sagan"
	mustAdd(t, src, "documentary", doc)
	kid := movieRequest("Paddington", "Family")
	kid.MoralLesson = "Be kind"
	kid.ParentalAppeal = intPtr(3)
	kid.Watched = boolPtr(true)
	mustAdd(t, src, "kidMovie", kid)

	var buf bytes.Buffer
	n, err := src.Export(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))

	dst := newTestService(t)
	res, err := dst.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Empty(t, res.Rejected)

	want := searchAll(t, src)
	got := searchAll(t, dst)
	require.Len(t, got, len(want))
	for i := range want {
		want[i].ID, got[i].ID = 0, 0
		assert.Equal(t, want[i], got[i])
	}
}

func TestImportCollectsRejectedLines(t *testing.T) {
	s := newTestService(t)

	input := strings.Join([]string{
		`{"kind":"movie","title":"Good","director":"D","genres":["Drama"],"releaseYear":2000,"duration":90,"ageRating":12}`,
		``,
		`{not json`,
		`{"kind":"documentary","title":"No topic","director":"D","genres":["Nature"],"releaseYear":2000,"duration":90,"ageRating":0,"documentarian":"X"}`,
		`{"kind":"movie","title":"Bad genres","director":"D","genres":["Drama", 1],"releaseYear":2000,"duration":90,"ageRating":12}`,
	}, "\n")

	res, err := s.Import(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	require.Len(t, res.Rejected, 3)
	assert.Equal(t, 3, res.Rejected[0].Line)
	assert.Equal(t, 4, res.Rejected[1].Line)
	assert.Equal(t, 5, res.Rejected[2].Line)
	for _, rej := range res.Rejected {
		assert.ErrorIs(t, rej, types.ErrValidation)
	}
	assert.Len(t, searchAll(t, s), 1)
}

func TestExportFileIsAtomic(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	mustAdd(t, s, "movie", movieRequest("Heat", "Crime"))

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("old contents\n"), 0644))

	n, err := s.ExportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title":"Heat"`)
	assert.NotContains(t, string(data), "old contents")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be renamed away")

	other := newTestService(t)
	res, err := other.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
}

func TestImportFileMissing(t *testing.T) {
	s := newTestService(t)
	_, err := s.ImportFile(context.Background(), filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.Error(t, err)
}
