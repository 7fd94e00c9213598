package data

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock hands out fixedNow and moves forward a minute per call.
type testClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.cur
	c.cur = c.cur.Add(time.Minute)
	return t
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	clock := &testClock{cur: fixedNow}
	return NewStore(nil, WithClock(clock.Now))
}

func TestStore_CreateAndGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	created, err := s.Create(validBook("a"))
	require.NoError(t, err)
	assert.Equal(t, fixedNow, created.CreatedAt)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, found, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created, got)
	assert.Nil(t, got.Tags, "absent tags must stay absent")
}

func TestStore_CreateKeepsGivenTimestamps(t *testing.T) {
	s := newTestStore(t)
	b := validBook("a")
	b.CreatedAt = fixedNow.Add(-time.Hour)
	b.UpdatedAt = fixedNow.Add(-time.Hour)

	created, err := s.Create(b)
	require.NoError(t, err)
	assert.Equal(t, b.CreatedAt, created.CreatedAt)
	assert.Equal(t, b.UpdatedAt, created.UpdatedAt)
}

func TestStore_CreateTrimsStrings(t *testing.T) {
	s := newTestStore(t)
	b := validBook("a")
	b.Title = "  1984 "
	b.Author = "\tGeorge Orwell\n"

	created, err := s.Create(b)
	require.NoError(t, err)
	assert.Equal(t, "1984", created.Title)
	assert.Equal(t, "George Orwell", created.Author)
}

func TestStore_CreateDuplicateID(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create(validBook("a"))
	require.NoError(t, err)

	_, err = s.Create(validBook("a"))
	require.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, 1, s.Len())
}

func TestStore_CreateInvalidArgument(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.Create(validBook(""))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Zero(t, s.Len())
}

// invalidBookCases each break exactly one field rule of validBook.
var invalidBookCases = []struct {
	name   string
	mutate func(b *Book)
	field  string
}{
	{"empty title", func(b *Book) { b.Title = "" }, "title"},
	{"blank title", func(b *Book) { b.Title = "   " }, "title"},
	{"empty author", func(b *Book) { b.Author = "" }, "author"},
	{"blank author", func(b *Book) { b.Author = "   " }, "author"},
	{"year 1899", func(b *Book) { b.PublishedYear = 1899 }, "published_year"},
	{"next year", func(b *Book) { b.PublishedYear = fixedNow.Year() + 1 }, "published_year"},
	{"zero price", func(b *Book) { b.Price = 0 }, "price"},
	{"negative price", func(b *Book) { b.Price = -10 }, "price"},
}

func TestStore_CreateValidation(t *testing.T) {
	for _, tt := range invalidBookCases {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			b := validBook("a")
			tt.mutate(b)

			_, err := s.Create(b)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Errors, tt.field)
			assert.Zero(t, s.Len())
		})
	}
}

func TestStore_UpdateValidation(t *testing.T) {
	for _, tt := range invalidBookCases {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			created, err := s.Create(validBook("a"))
			require.NoError(t, err)

			b := validBook("a")
			tt.mutate(b)

			updated, found, err := s.Update("a", b)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Errors, tt.field)
			assert.False(t, found)
			assert.Nil(t, updated)

			got, _, err := s.Get("a")
			require.NoError(t, err)
			assert.Equal(t, created, got, "failed update must leave the record alone")
		})
	}
}

func TestStore_CreateCopiesInput(t *testing.T) {
	s := newTestStore(t)
	b := validBook("a")
	b.Tags = []string{"x"}

	_, err := s.Create(b)
	require.NoError(t, err)
	b.Tags[0] = "mutated"
	b.Title = "mutated"

	got, _, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got.Tags)
	assert.Equal(t, "1984", got.Title)

	got.Tags[0] = "mutated again"
	again, _, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, again.Tags)
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	got, found, err := s.Get("nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)

	_, _, err = s.Get("")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStore_UpdatePinsID(t *testing.T) {
	s := newTestStore(t)
	created, err := s.Create(validBook("a"))
	require.NoError(t, err)

	candidate := validBook("some-other-id")
	candidate.Title = "Animal Farm"

	updated, found, err := s.Update("a", candidate)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a", updated.ID)
	assert.Equal(t, "Animal Farm", updated.Title)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt), "updated_at must be refreshed")

	_, found, err = s.Get("some-other-id")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, s.Len())
}

func TestStore_UpdatePartialMerge(t *testing.T) {
	s := newTestStore(t)
	b := validBook("b")
	b.Tags = []string{"x"}
	_, err := s.Create(b)
	require.NoError(t, err)

	existing, found, err := s.Get("b")
	require.NoError(t, err)
	require.True(t, found)

	updated, found, err := s.Update("b", UpdateBookInput{Title: Some("Y")}.Apply(existing))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Y", updated.Title)
	assert.Equal(t, []string{"x"}, updated.Tags)
	assert.Equal(t, "b", updated.ID)
	assert.Equal(t, "George Orwell", updated.Author)
}

func TestStore_UpdateClearsTags(t *testing.T) {
	s := newTestStore(t)
	b := validBook("b")
	b.Tags = []string{"x"}
	_, err := s.Create(b)
	require.NoError(t, err)

	existing, _, err := s.Get("b")
	require.NoError(t, err)

	updated, found, err := s.Update("b", UpdateBookInput{Tags: Null[[]string]()}.Apply(existing))
	require.NoError(t, err)
	require.True(t, found)
	assert.Nil(t, updated.Tags)

	got, _, err := s.Get("b")
	require.NoError(t, err)
	assert.Nil(t, got.Tags)
}

func TestStore_UpdateMissing(t *testing.T) {
	s := newTestStore(t)

	got, found, err := s.Update("nope", validBook("nope"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
	assert.Zero(t, s.Len())
}

func TestStore_UpdateInvalid(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create(validBook("a"))
	require.NoError(t, err)

	_, _, err = s.Update("", validBook("a"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = s.Update("a", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create(validBook("a"))
	require.NoError(t, err)

	deleted, err := s.Delete("a")
	require.NoError(t, err)
	assert.True(t, deleted)

	for i := 0; i < 2; i++ {
		deleted, err = s.Delete("a")
		require.NoError(t, err)
		assert.False(t, deleted)
	}

	_, err = s.Delete("")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStore_ListEmpty(t *testing.T) {
	s := newTestStore(t)

	books, err := s.List("")
	require.NoError(t, err)
	require.NotNil(t, books)
	assert.Empty(t, books)

	books, err = s.List("fiction")
	require.NoError(t, err)
	require.NotNil(t, books)
	assert.Empty(t, books)
}

func TestStore_ListTagFilterExact(t *testing.T) {
	s := newTestStore(t)
	fixtures := map[string][]string{
		"a": {"fiction", "classic"},
		"b": {"Fiction"},
		"c": {"nonfiction"},
		"d": nil,
		"e": {},
		"f": {"fiction"},
	}
	for id, tags := range fixtures {
		b := validBook(id)
		b.Tags = tags
		_, err := s.Create(b)
		require.NoError(t, err)
	}

	all, err := s.List("")
	require.NoError(t, err)
	assert.Len(t, all, len(fixtures))

	fiction, err := s.List("fiction")
	require.NoError(t, err)
	ids := make([]string, 0, len(fiction))
	for _, b := range fiction {
		ids = append(ids, b.ID)
	}
	assert.ElementsMatch(t, []string{"a", "f"}, ids)
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Create(validBook(id))
		require.NoError(t, err)
	}

	assert.Equal(t, 3, s.Clear())
	assert.Zero(t, s.Len())
	assert.Zero(t, s.Clear())
}

func TestStore_UnexpectedFailure(t *testing.T) {
	s := NewStore(nil, WithClock(func() time.Time { panic("clock unavailable") }))

	_, err := s.Create(validBook("a"))
	require.ErrorIs(t, err, ErrStorage)
	assert.Contains(t, err.Error(), "clock unavailable")

	// The lock must have been released on the way out.
	books, err := s.List("")
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestStore_UniqueUnderConcurrency(t *testing.T) {
	s := newTestStore(t)
	const writers = 20
	const ids = 50

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes = make(map[string]int)
	)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < ids; i++ {
				id := fmt.Sprintf("book-%d", i)
				_, err := s.Create(validBook(id))
				switch {
				case err == nil:
					mu.Lock()
					successes[id]++
					mu.Unlock()
				case errors.Is(err, ErrAlreadyExists):
				default:
					t.Errorf("unexpected error: %v", err)
				}
				_, _ = s.List("")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, ids, s.Len())
	for id, n := range successes {
		assert.Equal(t, 1, n, "id %s created more than once", id)
	}
	assert.Len(t, successes, ids)
}
