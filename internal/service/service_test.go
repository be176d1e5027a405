package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gantzhq/gantz/internal/config"
	"github.com/gantzhq/gantz/internal/models"
	"github.com/gantzhq/gantz/internal/store"
	"github.com/gantzhq/gantz/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUploader records uploads and can be told to fail.
type fakeUploader struct {
	n   int
	err error
}

func (f *fakeUploader) Upload(_ context.Context, file upload.File) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.n++
	return "https://cdn.test/images/" + file.Name, nil
}

func file(name string) *upload.File {
	return &upload.File{Name: name, ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("x")}
}

func TestPhotos_CreateViewEditDelete(t *testing.T) {
	s := store.NewMemory()
	up := &fakeUploader{}
	photos := NewPhotos(s.Photos, up)
	ctx := context.Background()

	p, err := photos.Create(ctx, file("a.jpg"), "  hello ", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/images/a.jpg", p.ImageURL)
	assert.Equal(t, "hello", p.CaptionText())

	page, err := photos.Range(ctx, store.PageRange(0, 24))
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "hello", page[0].CaptionText())

	p, err = photos.UpdateCaption(ctx, p.ID, "   ")
	require.NoError(t, err)
	assert.Nil(t, p.Caption)

	require.NoError(t, photos.Delete(ctx, p.ID))
	page, err = photos.Range(ctx, store.PageRange(0, 24))
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.ErrorIs(t, photos.Delete(ctx, p.ID), store.ErrNotFound)
}

func TestPhotos_UploadFailureLeavesNoRecord(t *testing.T) {
	s := store.NewMemory()
	photos := NewPhotos(s.Photos, &fakeUploader{err: errors.New("bucket full")})
	_, err := photos.Create(context.Background(), file("a.jpg"), "", nil)
	require.EqualError(t, err, "bucket full")

	all, err := s.Photos.List(context.Background(), store.Query{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPhotos_FileRequired(t *testing.T) {
	photos := NewPhotos(store.NewMemory().Photos, &fakeUploader{})
	_, err := photos.Create(context.Background(), nil, "c", nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMemos_CommentsAndCascade(t *testing.T) {
	s := store.NewMemory()
	memos := NewMemos(s.Memos, s.Comments, true)
	ctx := context.Background()

	_, err := memos.Create(ctx, " ", "body")
	assert.ErrorIs(t, err, ErrValidation)

	m, err := memos.Create(ctx, " Title ", " Body ")
	require.NoError(t, err)
	assert.Equal(t, "Title", m.Title)

	c, err := memos.PostComment(ctx, m.ID, "   ", " first ")
	require.NoError(t, err)
	assert.Nil(t, c.Nickname)
	assert.Equal(t, models.AnonymousNickname, c.DisplayName())
	assert.Equal(t, "first", c.Body)

	_, err = memos.PostComment(ctx, m.ID, "mina", "second")
	require.NoError(t, err)
	_, err = memos.PostComment(ctx, m.ID, "mina", "  ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = memos.PostComment(ctx, "missing", "", "hi")
	assert.ErrorIs(t, err, store.ErrNotFound)

	cs, err := memos.Comments(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, "first", cs[0].Body, "oldest first")
	assert.Equal(t, "mina", cs[1].DisplayName())

	require.NoError(t, memos.DeleteComment(ctx, cs[1].ID))
	require.NoError(t, memos.Delete(ctx, m.ID))
	left, err := s.Comments.ListByMemo(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.ErrorIs(t, memos.Delete(ctx, m.ID), store.ErrNotFound)
}

func TestMemos_NoCascadeKeepsComments(t *testing.T) {
	s := store.NewMemory()
	memos := NewMemos(s.Memos, s.Comments, false)
	ctx := context.Background()
	m, err := memos.Create(ctx, "t", "b")
	require.NoError(t, err)
	_, err = memos.PostComment(ctx, m.ID, "", "c")
	require.NoError(t, err)
	require.NoError(t, memos.Delete(ctx, m.ID))

	left, err := s.Comments.ListByMemo(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestMemos_ListNewestFirst(t *testing.T) {
	s := store.NewMemory()
	memos := NewMemos(s.Memos, s.Comments, true)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		_, err := memos.Create(ctx, title, "x")
		require.NoError(t, err)
	}
	all, err := memos.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Title)
}

func TestPeople_CreateUpdate(t *testing.T) {
	s := store.NewMemory()
	up := &fakeUploader{}
	people := NewPeople(s.People, up)
	ctx := context.Background()

	_, err := people.Create(ctx, PersonInput{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := people.Create(ctx, PersonInput{
		Name:   " Ann ",
		MBTI:   " INTJ ",
		Bio:    "  ",
		Extras: []models.Extra{{Key: " city ", Value: "Oslo"}, {Key: "  ", Value: "dropped"}},
		Avatar: file("ann.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann", p.Name)
	require.NotNil(t, p.MBTI)
	assert.Equal(t, "INTJ", *p.MBTI)
	assert.Nil(t, p.Bio)
	assert.Equal(t, models.Extras{{Key: "city", Value: "Oslo"}}, p.Extras)
	require.NotNil(t, p.AvatarURL)
	assert.Equal(t, 1, up.n)

	// no new avatar keeps the old one
	p, err = people.Update(ctx, p.ID, PersonInput{Name: "Ann B", Bio: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Ann B", p.Name)
	assert.Nil(t, p.MBTI)
	assert.Equal(t, "https://cdn.test/images/ann.png", *p.AvatarURL)
	assert.Empty(t, p.Extras)

	p, err = people.Update(ctx, p.ID, PersonInput{Name: "Ann B", Avatar: file("new.png")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/images/new.png", *p.AvatarURL)

	_, err = people.Update(ctx, p.ID, PersonInput{Name: "x", Extras: []models.Extra{{Key: "a"}, {Key: "a "}}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = people.Update(ctx, "missing", PersonInput{Name: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPeople_ListOldestFirst(t *testing.T) {
	s := store.NewMemory()
	people := NewPeople(s.People, &fakeUploader{})
	ctx := context.Background()
	for _, n := range []string{"first", "second"} {
		_, err := people.Create(ctx, PersonInput{Name: n})
		require.NoError(t, err)
	}
	all, err := people.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Name)
}

func TestHome_Landing(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	clock := now.Add(-10 * 24 * time.Hour)
	s := store.NewMemoryWithClock(func() time.Time { return clock })
	ctx := context.Background()

	require.NoError(t, s.Photos.Insert(ctx, &models.Photo{ImageURL: "old"}))
	require.NoError(t, s.Memos.Insert(ctx, &models.Memo{Title: "old", Body: "b"}))
	clock = now.Add(-time.Hour)
	require.NoError(t, s.Photos.Insert(ctx, &models.Photo{ImageURL: "new"}))
	require.NoError(t, s.Memos.Insert(ctx, &models.Memo{Title: "new", Body: "b"}))

	site := config.SiteConfig{RecentDays: 7, RecentLimit: 30, YouTubeURL: "https://youtu.be/abc?si=x",
		Links: []config.Link{{Label: "blog", Href: "https://blog.test"}}}
	h := NewHome(NewPhotos(s.Photos, nil), NewMemos(s.Memos, s.Comments, true), site)
	h.now = func() time.Time { return now }

	l, err := h.Landing(ctx)
	require.NoError(t, err)
	require.Len(t, l.Photos, 1)
	assert.Equal(t, "new", l.Photos[0].ImageURL)
	require.Len(t, l.Memos, 1)
	assert.Equal(t, "https://www.youtube.com/embed/abc", l.EmbedURL)
	assert.Equal(t, "blog", l.Links[0].Label)
}

func TestYouTubeEmbedURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://youtu.be/kuQ8kiBuFd4?si=afx3", "https://www.youtube.com/embed/kuQ8kiBuFd4"},
		{"https://www.youtube.com/watch?v=abc&t=1", "https://www.youtube.com/embed/abc"},
		{"https://www.youtube.com/embed/xyz", "https://www.youtube.com/embed/xyz"},
		{"https://youtube.com/shorts/sh1/extra", "https://www.youtube.com/embed/sh1"},
		{"https://youtu.be/", ""},
		{"https://vimeo.com/123", ""},
		{"not a url", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, YouTubeEmbedURL(tc.in), tc.in)
	}
}
