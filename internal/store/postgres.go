package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gantzhq/gantz/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS photos (
	id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	image_url  text NOT NULL,
	caption    text,
	taken_at   timestamptz,
	created_at timestamptz NOT NULL DEFAULT clock_timestamp()
);
CREATE INDEX IF NOT EXISTS photos_created_at_idx ON photos (created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS memos (
	id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	created_at timestamptz NOT NULL DEFAULT clock_timestamp(),
	title      text NOT NULL,
	body       text NOT NULL
);
CREATE INDEX IF NOT EXISTS memos_created_at_idx ON memos (created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS memo_comments (
	id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	created_at timestamptz NOT NULL DEFAULT clock_timestamp(),
	memo_id    uuid NOT NULL REFERENCES memos (id),
	nickname   text,
	body       text NOT NULL
);
CREATE INDEX IF NOT EXISTS memo_comments_memo_idx ON memo_comments (memo_id, created_at);

CREATE TABLE IF NOT EXISTS people (
	id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	created_at timestamptz NOT NULL DEFAULT clock_timestamp(),
	name       text NOT NULL,
	mbti       text,
	bio        text,
	avatar_url text,
	extras     jsonb NOT NULL DEFAULT '[]'::jsonb
);
CREATE INDEX IF NOT EXISTS people_created_at_idx ON people (created_at, id);
`

// NewPostgres returns a Store on top of pool and applies the schema.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{
		Photos:   &pgPhotos{pool: pool},
		Memos:    &pgMemos{pool: pool},
		Comments: &pgComments{pool: pool},
		People:   &pgPeople{pool: pool},
		Close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}, nil
}

// pgID converts an opaque id to a uuid parameter. Ids that are not uuids cannot
// exist in these tables, so they are reported as not found.
func pgID(id string) (pgtype.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, ErrNotFound
	}
	return pgtype.UUID{Bytes: u, Valid: true}, nil
}

// listSQL appends the filter, ordering and window of q to a SELECT.
func listSQL(base string, q Query, args []any) (string, []any, error) {
	off, n, err := q.window()
	if err != nil {
		return "", nil, err
	}
	var sb strings.Builder
	sb.WriteString(base)
	if q.Since != nil {
		args = append(args, *q.Since)
		fmt.Fprintf(&sb, " WHERE created_at >= $%d", len(args))
	}
	if q.Order == Asc {
		sb.WriteString(" ORDER BY created_at ASC, id ASC")
	} else {
		sb.WriteString(" ORDER BY created_at DESC, id DESC")
	}
	if n >= 0 {
		args = append(args, n)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if off > 0 {
		args = append(args, off)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}
	return sb.String(), args, nil
}

func execOne(ctx context.Context, pool *pgxpool.Pool, sql string, args ...any) error {
	tag, err := pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func noRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

type pgPhotos struct{ pool *pgxpool.Pool }

const photoCols = "SELECT id::text, image_url, caption, taken_at, created_at FROM photos"

func scanPhoto(row pgx.Row) (models.Photo, error) {
	var p models.Photo
	err := row.Scan(&p.ID, &p.ImageURL, &p.Caption, &p.TakenAt, &p.CreatedAt)
	return p, err
}

func (r *pgPhotos) List(ctx context.Context, q Query) ([]models.Photo, error) {
	sql, args, err := listSQL(photoCols, q, nil)
	if err != nil {
		observe("photos", "list", err)
		return nil, err
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		observe("photos", "list", err)
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Photo, error) { return scanPhoto(row) })
	observe("photos", "list", err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pgPhotos) Get(ctx context.Context, id string) (*models.Photo, error) {
	pid, err := pgID(id)
	if err != nil {
		observe("photos", "get", err)
		return nil, err
	}
	p, err := scanPhoto(r.pool.QueryRow(ctx, photoCols+" WHERE id = $1", pid))
	err = noRows(err)
	observe("photos", "get", err)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgPhotos) Insert(ctx context.Context, p *models.Photo) error {
	err := r.pool.QueryRow(ctx,
		"INSERT INTO photos (image_url, caption, taken_at) VALUES ($1, $2, $3) RETURNING id::text, created_at",
		p.ImageURL, p.Caption, p.TakenAt,
	).Scan(&p.ID, &p.CreatedAt)
	observe("photos", "insert", err)
	return err
}

func (r *pgPhotos) Update(ctx context.Context, id string, f PhotoFields) error {
	pid, err := pgID(id)
	if err == nil {
		err = execOne(ctx, r.pool, "UPDATE photos SET caption = $2 WHERE id = $1", pid, f.Caption)
	}
	observe("photos", "update", err)
	return err
}

func (r *pgPhotos) Delete(ctx context.Context, id string) error {
	pid, err := pgID(id)
	if err == nil {
		err = execOne(ctx, r.pool, "DELETE FROM photos WHERE id = $1", pid)
	}
	observe("photos", "delete", err)
	return err
}

type pgMemos struct{ pool *pgxpool.Pool }

const memoCols = "SELECT id::text, created_at, title, body FROM memos"

func scanMemo(row pgx.Row) (models.Memo, error) {
	var m models.Memo
	err := row.Scan(&m.ID, &m.CreatedAt, &m.Title, &m.Body)
	return m, err
}

func (r *pgMemos) List(ctx context.Context, q Query) ([]models.Memo, error) {
	sql, args, err := listSQL(memoCols, q, nil)
	if err != nil {
		observe("memos", "list", err)
		return nil, err
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		observe("memos", "list", err)
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Memo, error) { return scanMemo(row) })
	observe("memos", "list", err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pgMemos) Get(ctx context.Context, id string) (*models.Memo, error) {
	pid, err := pgID(id)
	if err != nil {
		observe("memos", "get", err)
		return nil, err
	}
	m, err := scanMemo(r.pool.QueryRow(ctx, memoCols+" WHERE id = $1", pid))
	err = noRows(err)
	observe("memos", "get", err)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *pgMemos) Insert(ctx context.Context, m *models.Memo) error {
	err := r.pool.QueryRow(ctx,
		"INSERT INTO memos (title, body) VALUES ($1, $2) RETURNING id::text, created_at",
		m.Title, m.Body,
	).Scan(&m.ID, &m.CreatedAt)
	observe("memos", "insert", err)
	return err
}

func (r *pgMemos) Delete(ctx context.Context, id string) error {
	pid, err := pgID(id)
	if err == nil {
		err = execOne(ctx, r.pool, "DELETE FROM memos WHERE id = $1", pid)
	}
	observe("memos", "delete", err)
	return err
}

type pgComments struct{ pool *pgxpool.Pool }

const commentCols = "SELECT id::text, created_at, memo_id::text, nickname, body FROM memo_comments"

func scanComment(row pgx.Row) (models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.CreatedAt, &c.MemoID, &c.Nickname, &c.Body)
	return c, err
}

func (r *pgComments) ListByMemo(ctx context.Context, memoID string) ([]models.Comment, error) {
	mid, err := pgID(memoID)
	if err != nil {
		// no such memo, so no comments
		observe("comments", "list", nil)
		return []models.Comment{}, nil
	}
	rows, err := r.pool.Query(ctx, commentCols+" WHERE memo_id = $1 ORDER BY created_at ASC, id ASC", mid)
	if err != nil {
		observe("comments", "list", err)
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Comment, error) { return scanComment(row) })
	observe("comments", "list", err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pgComments) Get(ctx context.Context, id string) (*models.Comment, error) {
	pid, err := pgID(id)
	if err != nil {
		observe("comments", "get", err)
		return nil, err
	}
	c, err := scanComment(r.pool.QueryRow(ctx, commentCols+" WHERE id = $1", pid))
	err = noRows(err)
	observe("comments", "get", err)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *pgComments) Insert(ctx context.Context, c *models.Comment) error {
	mid, err := pgID(c.MemoID)
	if err == nil {
		err = r.pool.QueryRow(ctx,
			"INSERT INTO memo_comments (memo_id, nickname, body) VALUES ($1, $2, $3) RETURNING id::text, created_at",
			mid, c.Nickname, c.Body,
		).Scan(&c.ID, &c.CreatedAt)
	}
	observe("comments", "insert", err)
	return err
}

func (r *pgComments) Delete(ctx context.Context, id string) error {
	pid, err := pgID(id)
	if err == nil {
		err = execOne(ctx, r.pool, "DELETE FROM memo_comments WHERE id = $1", pid)
	}
	observe("comments", "delete", err)
	return err
}

func (r *pgComments) DeleteByMemo(ctx context.Context, memoID string) (int64, error) {
	mid, err := pgID(memoID)
	if err != nil {
		observe("comments", "delete_by_memo", nil)
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, "DELETE FROM memo_comments WHERE memo_id = $1", mid)
	observe("comments", "delete_by_memo", err)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type pgPeople struct{ pool *pgxpool.Pool }

const personCols = "SELECT id::text, created_at, name, mbti, bio, avatar_url, extras FROM people"

func scanPerson(row pgx.Row) (models.Person, error) {
	var p models.Person
	err := row.Scan(&p.ID, &p.CreatedAt, &p.Name, &p.MBTI, &p.Bio, &p.AvatarURL, &p.Extras)
	if p.Extras == nil {
		p.Extras = models.Extras{}
	}
	return p, err
}

func (r *pgPeople) List(ctx context.Context, q Query) ([]models.Person, error) {
	sql, args, err := listSQL(personCols, q, nil)
	if err != nil {
		observe("people", "list", err)
		return nil, err
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		observe("people", "list", err)
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Person, error) { return scanPerson(row) })
	observe("people", "list", err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pgPeople) Get(ctx context.Context, id string) (*models.Person, error) {
	pid, err := pgID(id)
	if err != nil {
		observe("people", "get", err)
		return nil, err
	}
	p, err := scanPerson(r.pool.QueryRow(ctx, personCols+" WHERE id = $1", pid))
	err = noRows(err)
	observe("people", "get", err)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgPeople) Insert(ctx context.Context, p *models.Person) error {
	if p.Extras == nil {
		p.Extras = models.Extras{}
	}
	err := r.pool.QueryRow(ctx,
		"INSERT INTO people (name, mbti, bio, avatar_url, extras) VALUES ($1, $2, $3, $4, $5) RETURNING id::text, created_at",
		p.Name, p.MBTI, p.Bio, p.AvatarURL, p.Extras,
	).Scan(&p.ID, &p.CreatedAt)
	observe("people", "insert", err)
	return err
}

func (r *pgPeople) Update(ctx context.Context, id string, f PersonFields) error {
	extras := f.Extras
	if extras == nil {
		extras = models.Extras{}
	}
	pid, err := pgID(id)
	if err == nil {
		err = execOne(ctx, r.pool,
			"UPDATE people SET name = $2, mbti = $3, bio = $4, avatar_url = $5, extras = $6 WHERE id = $1",
			pid, f.Name, f.MBTI, f.Bio, f.AvatarURL, extras,
		)
	}
	observe("people", "update", err)
	return err
}

func (r *pgPeople) Delete(ctx context.Context, id string) error {
	pid, err := pgID(id)
	if err == nil {
		err = execOne(ctx, r.pool, "DELETE FROM people WHERE id = $1", pid)
	}
	observe("people", "delete", err)
	return err
}
