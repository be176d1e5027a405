package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/gantzhq/gantz/internal/feed"
	"github.com/gantzhq/gantz/internal/gate"
	"github.com/gantzhq/gantz/internal/models"
	"github.com/gantzhq/gantz/internal/service"
	"github.com/gantzhq/gantz/internal/store"
)

// PhotoPage is one slice of the gallery.
type PhotoPage struct {
	Items   []models.Photo `json:"items"`
	From    int            `json:"from"`
	To      int            `json:"to"`
	HasMore bool           `json:"has_more"`
	Viewer  gate.Viewer    `json:"viewer"`
}

// Comment is a memo comment with the name to show for it.
type Comment struct {
	models.Comment
	DisplayName string `json:"display_name"`
}

// Home returns the landing view and the viewer it was rendered for.
func (c *Client) Home(ctx context.Context) (*service.Landing, gate.Viewer, error) {
	var out struct {
		Landing service.Landing `json:"landing"`
		Viewer  gate.Viewer     `json:"viewer"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/home", nil, &out); err != nil {
		return nil, gate.Viewer{}, err
	}
	return &out.Landing, out.Viewer, nil
}

// Photos fetches rows r.From..r.To, newest first.
func (c *Client) Photos(ctx context.Context, r store.Range) (*PhotoPage, error) {
	q := url.Values{}
	q.Set("from", fmt.Sprint(r.From))
	q.Set("to", fmt.Sprint(r.To))
	var p PhotoPage
	if err := c.call(ctx, http.MethodGet, "/api/photos?"+q.Encode(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PhotoFetcher adapts Photos to a feed controller.
func (c *Client) PhotoFetcher() feed.Fetcher[models.Photo] {
	return func(ctx context.Context, r store.Range) ([]models.Photo, error) {
		p, err := c.Photos(ctx, r)
		if err != nil {
			return nil, err
		}
		return p.Items, nil
	}
}

// Upload is a file to send along with a form.
type Upload struct {
	Name string
	Body io.Reader
}

type form struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newForm() *form {
	f := &form{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

func (f *form) field(name, value string) {
	if f.err == nil && value != "" {
		f.err = f.w.WriteField(name, value)
	}
}

func (f *form) file(name string, u *Upload) {
	if f.err != nil || u == nil {
		return
	}
	fw, err := f.w.CreateFormFile(name, u.Name)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = io.Copy(fw, u.Body)
}

func (c *Client) sendForm(ctx context.Context, method, path string, f *form, out interface{}) error {
	if f.err == nil {
		f.err = f.w.Close()
	}
	if f.err != nil {
		return fmt.Errorf("build form for %s: %w", path, f.err)
	}
	return c.send(ctx, request{
		method:      method,
		path:        path,
		body:        &f.buf,
		contentType: f.w.FormDataContentType(),
		token:       c.Token(),
	}, out)
}

func (c *Client) UploadPhoto(ctx context.Context, file Upload, caption string, takenAt *time.Time) (*models.Photo, error) {
	f := newForm()
	f.file("file", &file)
	f.field("caption", caption)
	if takenAt != nil {
		f.field("taken_at", takenAt.Format(time.RFC3339))
	}
	var p models.Photo
	if err := c.sendForm(ctx, http.MethodPost, "/api/photos", f, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) SetCaption(ctx context.Context, id, caption string) (*models.Photo, error) {
	var p models.Photo
	if err := c.call(ctx, http.MethodPatch, "/api/photos/"+url.PathEscape(id), map[string]string{"caption": caption}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeletePhoto(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/photos/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Memos(ctx context.Context) ([]models.Memo, error) {
	var out struct {
		Items []models.Memo `json:"items"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/memos", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) Memo(ctx context.Context, id string) (*models.Memo, error) {
	var m models.Memo
	if err := c.call(ctx, http.MethodGet, "/api/memos/"+url.PathEscape(id), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) CreateMemo(ctx context.Context, title, body string) (*models.Memo, error) {
	var m models.Memo
	if err := c.call(ctx, http.MethodPost, "/api/memos", map[string]string{"title": title, "body": body}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) DeleteMemo(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/memos/"+url.PathEscape(id), nil, nil)
}

// Comments lists a memo's comments, oldest first.
func (c *Client) Comments(ctx context.Context, memoID string) ([]Comment, error) {
	var out struct {
		Items []Comment `json:"items"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/memos/"+url.PathEscape(memoID)+"/comments", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// PostComment needs no sign-in; an empty nickname posts anonymously.
func (c *Client) PostComment(ctx context.Context, memoID, nickname, body string) (*Comment, error) {
	var cm Comment
	in := map[string]string{"nickname": nickname, "body": body}
	if err := c.call(ctx, http.MethodPost, "/api/memos/"+url.PathEscape(memoID)+"/comments", in, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/comments/"+url.PathEscape(id), nil, nil)
}

func (c *Client) People(ctx context.Context) ([]models.Person, error) {
	var out struct {
		Items []models.Person `json:"items"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/people", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Person is the editable part of a directory entry.
type Person struct {
	Name   string
	MBTI   string
	Bio    string
	Extras []models.Extra
	Avatar *Upload
}

func (p Person) form() *form {
	f := newForm()
	f.field("name", p.Name)
	f.field("mbti", p.MBTI)
	f.field("bio", p.Bio)
	if len(p.Extras) > 0 {
		b, err := json.Marshal(p.Extras)
		if err != nil {
			f.err = err
		}
		f.field("extras", string(b))
	}
	f.file("avatar", p.Avatar)
	return f
}

func (c *Client) AddPerson(ctx context.Context, p Person) (*models.Person, error) {
	var out models.Person
	if err := c.sendForm(ctx, http.MethodPost, "/api/people", p.form(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EditPerson replaces the entry's fields; without an avatar the old one is kept.
func (c *Client) EditPerson(ctx context.Context, id string, p Person) (*models.Person, error) {
	var out models.Person
	if err := c.sendForm(ctx, http.MethodPut, "/api/people/"+url.PathEscape(id), p.form(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePerson(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/people/"+url.PathEscape(id), nil, nil)
}
