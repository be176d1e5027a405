// Package store is the record store client: parameterized reads and single-record
// writes against the photos, memos, comments and people collections.
//
// Every call either returns rows (possibly none) or an error. An empty result is a
// successful outcome and callers must not treat it as failure, nor treat success as
// a promise of rows.
package store

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/gantzhq/gantz/internal/models"
	"github.com/gantzhq/gantz/pkg/metrics"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrInvalidRange rejects a row range that starts before the first row.
	ErrInvalidRange = errors.New("invalid row range")
)

// Order is the creation-time ordering of a listing.
type Order int

const (
	Desc Order = iota
	Asc
)

// Range selects rows From..To, both inclusive, after ordering.
type Range struct {
	From int
	To   int
}

// MaxPage is the last zero-based page of the given size whose rows can still be
// addressed with an int. Callers taking a page number from outside check it first.
func MaxPage(size int) int {
	if size <= 0 {
		return 0
	}
	return (math.MaxInt - size) / size
}

// PageRange returns the inclusive row range of a zero-based page. A page beyond
// MaxPage(size) or a non-positive size yields a range starting at -1, which every
// backend rejects with ErrInvalidRange.
func PageRange(page, size int) Range {
	if page < 0 || size <= 0 || page > MaxPage(size) {
		return Range{From: -1, To: -1}
	}
	from := page * size
	return Range{From: from, To: from + size - 1}
}

// Len is the number of rows the range asks for.
func (r Range) Len() int {
	if r.From < 0 || r.To < r.From {
		return 0
	}
	if r.To-r.From == math.MaxInt {
		return math.MaxInt
	}
	return r.To - r.From + 1
}

// Query parameterizes a listing. Zero value lists everything newest first.
type Query struct {
	Since *time.Time // created at or after
	Order Order
	Range *Range
	Limit int // ignored when Range is set
}

// window returns offset and count for the query; count < 0 means unbounded. A
// range never yields an unbounded count: a negative start is ErrInvalidRange.
func (q Query) window() (int, int, error) {
	if q.Range != nil {
		if q.Range.From < 0 {
			return 0, 0, ErrInvalidRange
		}
		return q.Range.From, q.Range.Len(), nil
	}
	if q.Limit > 0 {
		return 0, q.Limit, nil
	}
	return 0, -1, nil
}

// PhotoFields are the mutable photo fields.
type PhotoFields struct {
	Caption *string
}

// PersonFields are the mutable person fields; all of them are replaced on update.
type PersonFields struct {
	Name      string
	MBTI      *string
	Bio       *string
	AvatarURL *string
	Extras    models.Extras
}

type PhotoRepository interface {
	List(ctx context.Context, q Query) ([]models.Photo, error)
	Get(ctx context.Context, id string) (*models.Photo, error)
	Insert(ctx context.Context, p *models.Photo) error
	Update(ctx context.Context, id string, f PhotoFields) error
	Delete(ctx context.Context, id string) error
}

type MemoRepository interface {
	List(ctx context.Context, q Query) ([]models.Memo, error)
	Get(ctx context.Context, id string) (*models.Memo, error)
	Insert(ctx context.Context, m *models.Memo) error
	Delete(ctx context.Context, id string) error
}

type CommentRepository interface {
	// ListByMemo returns a memo's comments oldest first.
	ListByMemo(ctx context.Context, memoID string) ([]models.Comment, error)
	Get(ctx context.Context, id string) (*models.Comment, error)
	Insert(ctx context.Context, c *models.Comment) error
	Delete(ctx context.Context, id string) error
	DeleteByMemo(ctx context.Context, memoID string) (int64, error)
}

type PersonRepository interface {
	List(ctx context.Context, q Query) ([]models.Person, error)
	Get(ctx context.Context, id string) (*models.Person, error)
	Insert(ctx context.Context, p *models.Person) error
	Update(ctx context.Context, id string, f PersonFields) error
	Delete(ctx context.Context, id string) error
}

// Store bundles the collections of one backend.
type Store struct {
	Photos   PhotoRepository
	Memos    MemoRepository
	Comments CommentRepository
	People   PersonRepository

	// Close releases the backend; nil when nothing needs releasing.
	Close func(ctx context.Context) error
}

// observe records one store operation in the metrics.
func observe(collection, op string, err error) {
	result := metrics.Result(err)
	if errors.Is(err, ErrNotFound) {
		result = "not_found"
	}
	metrics.StoreOps.WithLabelValues(collection, op, result).Inc()
}
