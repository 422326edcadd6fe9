package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgw-tools/coursemapper/internal/storage/memory"
	"github.com/dgw-tools/coursemapper/internal/types"
)

func seeded(t *testing.T) *Cache {
	t.Helper()
	store := memory.New()
	for i, cn := range []string{"100", "101", "101H", "204", "291.5"} {
		store.AddCourse(types.CatalogCourse{
			CourseID: 100 + i, OfferNbr: 1, Institution: "QNS01",
			Discipline: "BIO", CatalogNumber: cn, Title: "Bio " + cn,
			Credits: 3, Career: "UGRD",
		})
	}
	store.AddCourse(types.CatalogCourse{
		CourseID: 200, OfferNbr: 1, Institution: "QNS01",
		Discipline: "CHEM", CatalogNumber: "101", Title: "Chem 101",
		Credits: 4, Career: "UGRD",
	})
	cache, err := New(store)
	require.NoError(t, err)
	return cache
}

func numbers(courses []types.CatalogCourse) []string {
	out := make([]string, len(courses))
	for i, c := range courses {
		out[i] = c.CatalogNumber
	}
	return out
}

func TestExpandExact(t *testing.T) {
	c := seeded(t)
	got, err := c.Expand(context.Background(), "QNS01", "BIO", "101")
	require.NoError(t, err)
	assert.Equal(t, []string{"101"}, numbers(got))
}

func TestExpandWildcards(t *testing.T) {
	c := seeded(t)

	got, err := c.Expand(context.Background(), "LEH01", "BIO", "@")
	require.NoError(t, err)
	assert.Len(t, got, 0, "wrong institution yields nothing")

	got, err = c.Expand(context.Background(), "QNS01", "BIO", "@")
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "101", "101H", "204", "291.5"}, numbers(got))

	got, err = c.Expand(context.Background(), "QNS01", "BIO", "1@")
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "101", "101H"}, numbers(got))

	got, err = c.Expand(context.Background(), "QNS01", "@", "101")
	require.NoError(t, err)
	assert.Len(t, got, 2, "both disciplines have a 101")
}

func TestExpandRangeIsHalfOpen(t *testing.T) {
	c := seeded(t)
	got, err := c.Expand(context.Background(), "QNS01", "BIO", "100:204")
	require.NoError(t, err)
	// 101H matches on its numeric prefix; 204 is excluded.
	assert.Equal(t, []string{"100", "101", "101H"}, numbers(got))

	got, err = c.Expand(context.Background(), "QNS01", "BIO", "204:300")
	require.NoError(t, err)
	assert.Equal(t, []string{"204", "291.5"}, numbers(got))
}

func TestExpandBadRangeBounds(t *testing.T) {
	c := seeded(t)
	_, err := c.Expand(context.Background(), "QNS01", "BIO", "abc:xyz")
	assert.Error(t, err)
}

func TestExpandLoadsEachInstitutionOnce(t *testing.T) {
	src := &countingSource{store: memory.New()}
	src.store.AddCourse(types.CatalogCourse{CourseID: 1, OfferNbr: 1,
		Institution: "QNS01", Discipline: "BIO", CatalogNumber: "101"})
	cache, err := New(src)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := cache.Expand(context.Background(), "QNS01", "BIO", "@")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, src.calls)
}

func TestExpandSourceErrorPropagates(t *testing.T) {
	cache, err := New(&failingSource{})
	require.NoError(t, err)
	_, err = cache.Expand(context.Background(), "QNS01", "BIO", "@")
	assert.Error(t, err)
}

type countingSource struct {
	store *memory.Store
	calls int
}

func (s *countingSource) CoursesFor(ctx context.Context, institution string) ([]types.CatalogCourse, error) {
	s.calls++
	return s.store.CoursesFor(ctx, institution)
}

type failingSource struct{}

func (failingSource) CoursesFor(context.Context, string) ([]types.CatalogCourse, error) {
	return nil, errors.New("connection lost")
}
