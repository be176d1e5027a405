package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gantzhq/gantz/internal/models"
	"github.com/google/uuid"
)

// clock hands out strictly increasing creation timestamps.
type clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func (c *clock) next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

// NewMemory returns a Store kept in process memory. Used for tests and local runs.
func NewMemory() *Store {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock is NewMemory with an injectable time source.
func NewMemoryWithClock(now func() time.Time) *Store {
	c := &clock{now: now}
	return &Store{
		Photos:   &memoryPhotos{clock: c, rows: map[string]*models.Photo{}},
		Memos:    &memoryMemos{clock: c, rows: map[string]*models.Memo{}},
		Comments: &memoryComments{clock: c, rows: map[string]*models.Comment{}},
		People:   &memoryPeople{clock: c, rows: map[string]*models.Person{}},
		Close:    func(context.Context) error { return nil },
	}
}

// window applies the query to rows already filtered and sorted.
func window[T any](rows []T, q Query) ([]T, error) {
	off, n, err := q.window()
	if err != nil {
		return nil, err
	}
	if off >= len(rows) {
		return []T{}, nil
	}
	rows = rows[off:]
	if n >= 0 && n < len(rows) {
		rows = rows[:n]
	}
	out := make([]T, len(rows))
	copy(out, rows)
	return out, nil
}

func sortByCreated[T any](rows []T, created func(T) time.Time, order Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		if order == Asc {
			return created(rows[i]).Before(created(rows[j]))
		}
		return created(rows[i]).After(created(rows[j]))
	})
}

func since(q Query, t time.Time) bool {
	return q.Since == nil || !t.Before(*q.Since)
}

type memoryPhotos struct {
	mu    sync.RWMutex
	clock *clock
	rows  map[string]*models.Photo
}

func (m *memoryPhotos) List(ctx context.Context, q Query) ([]models.Photo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Photo, 0, len(m.rows))
	for _, p := range m.rows {
		if since(q, p.CreatedAt) {
			out = append(out, *p)
		}
	}
	sortByCreated(out, func(p models.Photo) time.Time { return p.CreatedAt }, q.Order)
	out, err := window(out, q)
	observe("photos", "list", err)
	return out, err
}

func (m *memoryPhotos) Get(ctx context.Context, id string) (*models.Photo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.rows[id]
	if !ok {
		observe("photos", "get", ErrNotFound)
		return nil, ErrNotFound
	}
	cp := *p
	observe("photos", "get", nil)
	return &cp, nil
}

func (m *memoryPhotos) Insert(ctx context.Context, p *models.Photo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New().String()
	p.CreatedAt = m.clock.next()
	cp := *p
	m.rows[p.ID] = &cp
	observe("photos", "insert", nil)
	return nil
}

func (m *memoryPhotos) Update(ctx context.Context, id string, f PhotoFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		observe("photos", "update", ErrNotFound)
		return ErrNotFound
	}
	p.Caption = f.Caption
	observe("photos", "update", nil)
	return nil
}

func (m *memoryPhotos) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		observe("photos", "delete", ErrNotFound)
		return ErrNotFound
	}
	delete(m.rows, id)
	observe("photos", "delete", nil)
	return nil
}

type memoryMemos struct {
	mu    sync.RWMutex
	clock *clock
	rows  map[string]*models.Memo
}

func (m *memoryMemos) List(ctx context.Context, q Query) ([]models.Memo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Memo, 0, len(m.rows))
	for _, r := range m.rows {
		if since(q, r.CreatedAt) {
			out = append(out, *r)
		}
	}
	sortByCreated(out, func(r models.Memo) time.Time { return r.CreatedAt }, q.Order)
	out, err := window(out, q)
	observe("memos", "list", err)
	return out, err
}

func (m *memoryMemos) Get(ctx context.Context, id string) (*models.Memo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rows[id]
	if !ok {
		observe("memos", "get", ErrNotFound)
		return nil, ErrNotFound
	}
	cp := *r
	observe("memos", "get", nil)
	return &cp, nil
}

func (m *memoryMemos) Insert(ctx context.Context, r *models.Memo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New().String()
	r.CreatedAt = m.clock.next()
	cp := *r
	m.rows[r.ID] = &cp
	observe("memos", "insert", nil)
	return nil
}

func (m *memoryMemos) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		observe("memos", "delete", ErrNotFound)
		return ErrNotFound
	}
	delete(m.rows, id)
	observe("memos", "delete", nil)
	return nil
}

type memoryComments struct {
	mu    sync.RWMutex
	clock *clock
	rows  map[string]*models.Comment
}

func (m *memoryComments) ListByMemo(ctx context.Context, memoID string) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Comment{}
	for _, c := range m.rows {
		if c.MemoID == memoID {
			out = append(out, *c)
		}
	}
	sortByCreated(out, func(c models.Comment) time.Time { return c.CreatedAt }, Asc)
	observe("comments", "list", nil)
	return out, nil
}

func (m *memoryComments) Get(ctx context.Context, id string) (*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.rows[id]
	if !ok {
		observe("comments", "get", ErrNotFound)
		return nil, ErrNotFound
	}
	cp := *c
	observe("comments", "get", nil)
	return &cp, nil
}

func (m *memoryComments) Insert(ctx context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.New().String()
	c.CreatedAt = m.clock.next()
	cp := *c
	m.rows[c.ID] = &cp
	observe("comments", "insert", nil)
	return nil
}

func (m *memoryComments) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		observe("comments", "delete", ErrNotFound)
		return ErrNotFound
	}
	delete(m.rows, id)
	observe("comments", "delete", nil)
	return nil
}

func (m *memoryComments) DeleteByMemo(ctx context.Context, memoID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.rows {
		if c.MemoID == memoID {
			delete(m.rows, id)
			n++
		}
	}
	observe("comments", "delete_by_memo", nil)
	return n, nil
}

type memoryPeople struct {
	mu    sync.RWMutex
	clock *clock
	rows  map[string]*models.Person
}

func clonePerson(p *models.Person) models.Person {
	cp := *p
	cp.Extras = append(models.Extras{}, p.Extras...)
	return cp
}

func (m *memoryPeople) List(ctx context.Context, q Query) ([]models.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Person, 0, len(m.rows))
	for _, p := range m.rows {
		if since(q, p.CreatedAt) {
			out = append(out, clonePerson(p))
		}
	}
	sortByCreated(out, func(p models.Person) time.Time { return p.CreatedAt }, q.Order)
	out, err := window(out, q)
	observe("people", "list", err)
	return out, err
}

func (m *memoryPeople) Get(ctx context.Context, id string) (*models.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.rows[id]
	if !ok {
		observe("people", "get", ErrNotFound)
		return nil, ErrNotFound
	}
	cp := clonePerson(p)
	observe("people", "get", nil)
	return &cp, nil
}

func (m *memoryPeople) Insert(ctx context.Context, p *models.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New().String()
	p.CreatedAt = m.clock.next()
	if p.Extras == nil {
		p.Extras = models.Extras{}
	}
	cp := clonePerson(p)
	m.rows[p.ID] = &cp
	observe("people", "insert", nil)
	return nil
}

func (m *memoryPeople) Update(ctx context.Context, id string, f PersonFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		observe("people", "update", ErrNotFound)
		return ErrNotFound
	}
	p.Name = f.Name
	p.MBTI = f.MBTI
	p.Bio = f.Bio
	p.AvatarURL = f.AvatarURL
	p.Extras = append(models.Extras{}, f.Extras...)
	observe("people", "update", nil)
	return nil
}

func (m *memoryPeople) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		observe("people", "delete", ErrNotFound)
		return ErrNotFound
	}
	delete(m.rows, id)
	observe("people", "delete", nil)
	return nil
}
