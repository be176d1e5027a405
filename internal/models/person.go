package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmptyExtraKey     = errors.New("extra key must not be empty")
	ErrDuplicateExtraKey = errors.New("duplicate extra key")
)

// Person is a directory entry.
type Person struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
	Name      string    `bson:"name" json:"name"`
	MBTI      *string   `bson:"mbti,omitempty" json:"mbti"`
	Bio       *string   `bson:"bio,omitempty" json:"bio"`
	AvatarURL *string   `bson:"avatarUrl,omitempty" json:"avatar_url"`
	Extras    Extras    `bson:"extras" json:"extras"`
}

// Extra is one free-form attribute of a person.
type Extra struct {
	Key   string `bson:"key" json:"key"`
	Value string `bson:"value" json:"value"`
}

// Extras keeps insertion order; keys are unique and non-empty once normalized.
type Extras []Extra

// NormalizeExtras trims keys and validates them. Order is preserved.
func NormalizeExtras(in []Extra) (Extras, error) {
	out := make(Extras, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, e := range in {
		k := strings.TrimSpace(e.Key)
		if k == "" {
			return nil, fmt.Errorf("extras[%d]: %w", i, ErrEmptyExtraKey)
		}
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("extras[%d] %q: %w", i, k, ErrDuplicateExtraKey)
		}
		seen[k] = struct{}{}
		out = append(out, Extra{Key: k, Value: e.Value})
	}
	return out, nil
}

// Get returns the value stored under key.
func (x Extras) Get(key string) (string, bool) {
	for _, e := range x {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// OptionalText trims s and returns nil when nothing is left.
func OptionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
