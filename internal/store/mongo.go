package store

import (
	"context"
	"errors"
	"time"

	"github.com/gantzhq/gantz/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongo returns a Store backed by collections of db. Ids are ObjectID hex strings,
// so (createdAt, _id) gives a stable order even when timestamps collide at
// millisecond precision.
func NewMongo(ctx context.Context, db *mongo.Database) (*Store, error) {
	photos := db.Collection("photos")
	memos := db.Collection("memos")
	comments := db.Collection("memo_comments")
	people := db.Collection("people")

	byCreated := mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}
	for _, col := range []*mongo.Collection{photos, memos, people} {
		if _, err := col.Indexes().CreateOne(ctx, byCreated); err != nil {
			return nil, err
		}
	}
	byMemo := mongo.IndexModel{Keys: bson.D{{Key: "memoId", Value: 1}, {Key: "createdAt", Value: 1}}}
	if _, err := comments.Indexes().CreateOne(ctx, byMemo); err != nil {
		return nil, err
	}

	return &Store{
		Photos:   &mongoPhotos{col: photos},
		Memos:    &mongoMemos{col: memos},
		Comments: &mongoComments{col: comments},
		People:   &mongoPeople{col: people},
		Close: func(ctx context.Context) error {
			return db.Client().Disconnect(ctx)
		},
	}, nil
}

func findOptions(q Query) (*options.FindOptions, error) {
	off, n, err := q.window()
	if err != nil {
		return nil, err
	}
	dir := -1
	if q.Order == Asc {
		dir = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: dir}, {Key: "_id", Value: dir}})
	if off > 0 {
		opts.SetSkip(int64(off))
	}
	if n >= 0 {
		opts.SetLimit(int64(n))
	}
	return opts, nil
}

func sinceFilter(q Query) bson.M {
	if q.Since == nil {
		return bson.M{}
	}
	return bson.M{"createdAt": bson.M{"$gte": *q.Since}}
}

// list runs q against col with the extra filter.
func list[T any](ctx context.Context, col *mongo.Collection, filter interface{}, q Query) ([]T, error) {
	opts, err := findOptions(q)
	if err != nil {
		return nil, err
	}
	return findAll[T](ctx, col, filter, opts)
}

// findAll decodes every document of the query into a fresh slice.
func findAll[T any](ctx context.Context, col *mongo.Collection, filter interface{}, opts *options.FindOptions) ([]T, error) {
	// a zero limit means "no limit" to mongo; the query asked for nothing
	if opts.Limit != nil && *opts.Limit == 0 {
		return []T{}, nil
	}
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, id string) (*T, error) {
	var v T
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func deleteOne(ctx context.Context, col *mongo.Collection, id string) error {
	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func updateOne(ctx context.Context, col *mongo.Collection, id string, set bson.M) error {
	res, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func newMongoID() (string, time.Time) {
	oid := primitive.NewObjectID()
	return oid.Hex(), time.Now().UTC().Truncate(time.Millisecond)
}

type mongoPhotos struct{ col *mongo.Collection }

func (m *mongoPhotos) List(ctx context.Context, q Query) ([]models.Photo, error) {
	out, err := list[models.Photo](ctx, m.col, sinceFilter(q), q)
	observe("photos", "list", err)
	return out, err
}

func (m *mongoPhotos) Get(ctx context.Context, id string) (*models.Photo, error) {
	p, err := findOne[models.Photo](ctx, m.col, id)
	observe("photos", "get", err)
	return p, err
}

func (m *mongoPhotos) Insert(ctx context.Context, p *models.Photo) error {
	p.ID, p.CreatedAt = newMongoID()
	_, err := m.col.InsertOne(ctx, p)
	observe("photos", "insert", err)
	return err
}

func (m *mongoPhotos) Update(ctx context.Context, id string, f PhotoFields) error {
	err := updateOne(ctx, m.col, id, bson.M{"caption": f.Caption})
	observe("photos", "update", err)
	return err
}

func (m *mongoPhotos) Delete(ctx context.Context, id string) error {
	err := deleteOne(ctx, m.col, id)
	observe("photos", "delete", err)
	return err
}

type mongoMemos struct{ col *mongo.Collection }

func (m *mongoMemos) List(ctx context.Context, q Query) ([]models.Memo, error) {
	out, err := list[models.Memo](ctx, m.col, sinceFilter(q), q)
	observe("memos", "list", err)
	return out, err
}

func (m *mongoMemos) Get(ctx context.Context, id string) (*models.Memo, error) {
	r, err := findOne[models.Memo](ctx, m.col, id)
	observe("memos", "get", err)
	return r, err
}

func (m *mongoMemos) Insert(ctx context.Context, r *models.Memo) error {
	r.ID, r.CreatedAt = newMongoID()
	_, err := m.col.InsertOne(ctx, r)
	observe("memos", "insert", err)
	return err
}

func (m *mongoMemos) Delete(ctx context.Context, id string) error {
	err := deleteOne(ctx, m.col, id)
	observe("memos", "delete", err)
	return err
}

type mongoComments struct{ col *mongo.Collection }

func (m *mongoComments) ListByMemo(ctx context.Context, memoID string) ([]models.Comment, error) {
	out, err := list[models.Comment](ctx, m.col, bson.M{"memoId": memoID}, Query{Order: Asc})
	observe("comments", "list", err)
	return out, err
}

func (m *mongoComments) Get(ctx context.Context, id string) (*models.Comment, error) {
	c, err := findOne[models.Comment](ctx, m.col, id)
	observe("comments", "get", err)
	return c, err
}

func (m *mongoComments) Insert(ctx context.Context, c *models.Comment) error {
	c.ID, c.CreatedAt = newMongoID()
	_, err := m.col.InsertOne(ctx, c)
	observe("comments", "insert", err)
	return err
}

func (m *mongoComments) Delete(ctx context.Context, id string) error {
	err := deleteOne(ctx, m.col, id)
	observe("comments", "delete", err)
	return err
}

func (m *mongoComments) DeleteByMemo(ctx context.Context, memoID string) (int64, error) {
	res, err := m.col.DeleteMany(ctx, bson.M{"memoId": memoID})
	observe("comments", "delete_by_memo", err)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

type mongoPeople struct{ col *mongo.Collection }

func (m *mongoPeople) List(ctx context.Context, q Query) ([]models.Person, error) {
	out, err := list[models.Person](ctx, m.col, sinceFilter(q), q)
	observe("people", "list", err)
	return out, err
}

func (m *mongoPeople) Get(ctx context.Context, id string) (*models.Person, error) {
	p, err := findOne[models.Person](ctx, m.col, id)
	observe("people", "get", err)
	return p, err
}

func (m *mongoPeople) Insert(ctx context.Context, p *models.Person) error {
	p.ID, p.CreatedAt = newMongoID()
	if p.Extras == nil {
		p.Extras = models.Extras{}
	}
	_, err := m.col.InsertOne(ctx, p)
	observe("people", "insert", err)
	return err
}

func (m *mongoPeople) Update(ctx context.Context, id string, f PersonFields) error {
	extras := f.Extras
	if extras == nil {
		extras = models.Extras{}
	}
	err := updateOne(ctx, m.col, id, bson.M{
		"name":      f.Name,
		"mbti":      f.MBTI,
		"bio":       f.Bio,
		"avatarUrl": f.AvatarURL,
		"extras":    extras,
	})
	observe("people", "update", err)
	return err
}

func (m *mongoPeople) Delete(ctx context.Context, id string) error {
	err := deleteOne(ctx, m.col, id)
	observe("people", "delete", err)
	return err
}
