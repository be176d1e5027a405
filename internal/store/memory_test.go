package store

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/gantzhq/gantz/internal/models"
	"github.com/stretchr/testify/require"
)

// frozen returns a clock that never advances, to exercise the monotonic guarantee.
func frozen() func() time.Time {
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time { return t0 }
}

func TestPageRange(t *testing.T) {
	require.Equal(t, Range{From: 0, To: 23}, PageRange(0, 24))
	require.Equal(t, Range{From: 48, To: 71}, PageRange(2, 24))
	require.Equal(t, 24, PageRange(2, 24).Len())
}

func TestPageRange_Overflow(t *testing.T) {
	last := PageRange(MaxPage(24), 24)
	require.GreaterOrEqual(t, last.From, 0)
	require.Equal(t, 24, last.Len())

	for _, r := range []Range{
		PageRange(MaxPage(24)+1, 24),
		PageRange(384307168202282326, 24),
		PageRange(-1, 24),
		PageRange(0, 0),
	} {
		require.Less(t, r.From, 0)
		require.Zero(t, r.Len())
	}
	require.Equal(t, math.MaxInt, Range{From: 0, To: math.MaxInt}.Len())
}

func TestMemoryList_RejectsNegativeRange(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	for i := 0; i < 150; i++ {
		require.NoError(t, s.Photos.Insert(ctx, &models.Photo{ImageURL: "u"}))
		if i < 3 {
			require.NoError(t, s.Memos.Insert(ctx, &models.Memo{Title: "t", Body: "b"}))
			require.NoError(t, s.People.Insert(ctx, &models.Person{Name: "n"}))
		}
	}

	wrapped := Range{From: math.MinInt + 16, To: math.MinInt + 39}
	photos, err := s.Photos.List(ctx, Query{Range: &wrapped})
	require.ErrorIs(t, err, ErrInvalidRange)
	require.Empty(t, photos)

	overflowed := PageRange(384307168202282326, 24)
	_, err = s.Photos.List(ctx, Query{Range: &overflowed})
	require.ErrorIs(t, err, ErrInvalidRange)
	_, err = s.Memos.List(ctx, Query{Range: &overflowed})
	require.ErrorIs(t, err, ErrInvalidRange)
	_, err = s.People.List(ctx, Query{Range: &overflowed})
	require.ErrorIs(t, err, ErrInvalidRange)

	inverted := Range{From: 5, To: 2}
	none, err := s.Photos.List(ctx, Query{Range: &inverted})
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)
}

func TestMemoryPhotos_OrderAndRange(t *testing.T) {
	s := NewMemoryWithClock(frozen())
	ctx := context.Background()
	var ids []string
	for i := 0; i < 5; i++ {
		p := &models.Photo{ImageURL: "u"}
		require.NoError(t, s.Photos.Insert(ctx, p))
		require.NotEmpty(t, p.ID)
		ids = append(ids, p.ID)
	}

	all, err := s.Photos.List(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	require.Equal(t, ids[4], all[0].ID, "newest first")
	for i := 1; i < len(all); i++ {
		require.True(t, all[i-1].CreatedAt.After(all[i].CreatedAt), "creation timestamps must be strictly monotonic")
	}

	r := PageRange(1, 2)
	page, err := s.Photos.List(ctx, Query{Range: &r})
	require.NoError(t, err)
	require.Equal(t, []string{ids[2], ids[1]}, []string{page[0].ID, page[1].ID})

	beyond := PageRange(5, 2)
	empty, err := s.Photos.List(ctx, Query{Range: &beyond})
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestMemoryPhotos_UpdateDelete(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	p := &models.Photo{ImageURL: "https://cdn/x.jpg"}
	require.NoError(t, s.Photos.Insert(ctx, p))

	caption := "hello"
	require.NoError(t, s.Photos.Update(ctx, p.ID, PhotoFields{Caption: &caption}))
	got, err := s.Photos.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "hello", got.CaptionText())
	require.Equal(t, "https://cdn/x.jpg", got.ImageURL)

	require.NoError(t, s.Photos.Delete(ctx, p.ID))
	_, err = s.Photos.Get(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.Photos.Delete(ctx, p.ID), ErrNotFound)
	require.ErrorIs(t, s.Photos.Update(ctx, p.ID, PhotoFields{}), ErrNotFound)
}

func TestMemoryMemos_SinceAndLimit(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cur := now.Add(-10 * 24 * time.Hour)
	s := NewMemoryWithClock(func() time.Time { return cur })
	ctx := context.Background()

	old := &models.Memo{Title: "old", Body: "b"}
	require.NoError(t, s.Memos.Insert(ctx, old))
	cur = now
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Memos.Insert(ctx, &models.Memo{Title: "new", Body: "b"}))
	}

	cutoff := now.Add(-7 * 24 * time.Hour)
	got, err := s.Memos.List(ctx, Query{Since: &cutoff, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, m := range got {
		require.Equal(t, "new", m.Title)
	}
}

func TestMemoryComments_ByMemoAscending(t *testing.T) {
	s := NewMemoryWithClock(frozen())
	ctx := context.Background()
	first := &models.Comment{MemoID: "m1", Body: "first"}
	require.NoError(t, s.Comments.Insert(ctx, first))
	require.NoError(t, s.Comments.Insert(ctx, &models.Comment{MemoID: "m2", Body: "other"}))
	require.NoError(t, s.Comments.Insert(ctx, &models.Comment{MemoID: "m1", Body: "second"}))

	got, err := s.Comments.ListByMemo(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "first", got[0].Body)
	require.Equal(t, "second", got[1].Body)

	n, err := s.Comments.DeleteByMemo(ctx, "m1")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	got, err = s.Comments.ListByMemo(ctx, "m1")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMemoryPeople_ExtrasAreCopied(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	p := &models.Person{Name: "Mina", Extras: models.Extras{{Key: "city", Value: "Seoul"}}}
	require.NoError(t, s.People.Insert(ctx, p))

	p.Extras[0].Value = "mutated"
	got, err := s.People.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Seoul", got.Extras[0].Value)

	require.NoError(t, s.People.Update(ctx, p.ID, PersonFields{Name: "Mina K", Extras: models.Extras{}}))
	got, err = s.People.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Mina K", got.Name)
	require.Empty(t, got.Extras)

	list, err := s.People.List(ctx, Query{Order: Asc})
	require.NoError(t, err)
	require.Len(t, list, 1)
}
