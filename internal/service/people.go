package service

import (
	"context"
	"errors"
	"strings"

	"github.com/gantzhq/gantz/internal/models"
	"github.com/gantzhq/gantz/internal/store"
	"github.com/gantzhq/gantz/internal/upload"
)

// PersonInput is a create or edit form. Avatar is optional; on edit, leaving it nil
// keeps the current picture.
type PersonInput struct {
	Name   string
	MBTI   string
	Bio    string
	Extras []models.Extra
	Avatar *upload.File
}

type People struct {
	repo     store.PersonRepository
	uploader Uploader
}

func NewPeople(repo store.PersonRepository, up Uploader) *People {
	return &People{repo: repo, uploader: up}
}

// List returns everyone, oldest entry first.
func (s *People) List(ctx context.Context) ([]models.Person, error) {
	return s.repo.List(ctx, store.Query{Order: store.Asc})
}

func (s *People) Get(ctx context.Context, id string) (*models.Person, error) {
	return s.repo.Get(ctx, id)
}

// validate returns the trimmed name and cleaned extras. Rows with a blank key are
// dropped, as an empty form row would be.
func (in PersonInput) validate() (string, models.Extras, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", nil, invalid("name is required")
	}
	rows := make([]models.Extra, 0, len(in.Extras))
	for _, e := range in.Extras {
		if strings.TrimSpace(e.Key) != "" {
			rows = append(rows, e)
		}
	}
	extras, err := models.NormalizeExtras(rows)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateExtraKey) || errors.Is(err, models.ErrEmptyExtraKey) {
			return "", nil, invalid("%v", err)
		}
		return "", nil, err
	}
	return name, extras, nil
}

func (s *People) avatar(ctx context.Context, f *upload.File) (*string, error) {
	if f == nil || f.Body == nil {
		return nil, nil
	}
	url, err := s.uploader.Upload(ctx, *f)
	if err != nil {
		return nil, err
	}
	return &url, nil
}

// Create validates, uploads the avatar if any, then records the person.
func (s *People) Create(ctx context.Context, in PersonInput) (*models.Person, error) {
	name, extras, err := in.validate()
	if err != nil {
		return nil, err
	}
	avatar, err := s.avatar(ctx, in.Avatar)
	if err != nil {
		return nil, err
	}
	p := &models.Person{
		Name:      name,
		MBTI:      models.OptionalText(in.MBTI),
		Bio:       models.OptionalText(in.Bio),
		AvatarURL: avatar,
		Extras:    extras,
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces every field; a new avatar replaces the URL, otherwise it is kept.
func (s *People) Update(ctx context.Context, id string, in PersonInput) (*models.Person, error) {
	name, extras, err := in.validate()
	if err != nil {
		return nil, err
	}
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	avatar := cur.AvatarURL
	if in.Avatar != nil {
		if avatar, err = s.avatar(ctx, in.Avatar); err != nil {
			return nil, err
		}
	}
	f := store.PersonFields{
		Name:      name,
		MBTI:      models.OptionalText(in.MBTI),
		Bio:       models.OptionalText(in.Bio),
		AvatarURL: avatar,
		Extras:    extras,
	}
	if err := s.repo.Update(ctx, id, f); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *People) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
