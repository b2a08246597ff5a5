package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"aquadash/internal/modules/readings/types"
)

const logsCollection = "logs"

type readingDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Temperature float64            `bson:"temperature"`
	Status      int                `bson:"status"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d readingDocument) toReading() types.Reading {
	return types.Reading{
		ID:          d.ID.Hex(),
		Temperature: d.Temperature,
		Status:      types.Status(d.Status),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type mongoRepository struct {
	db    *mongo.Database
	coll  *mongo.Collection
	clock *clock
}

// NewMongoRepository stores readings in the "logs" collection of db and
// ensures the createdAt index exists.
func NewMongoRepository(ctx context.Context, db *mongo.Database, opts ...Option) (ReadingRepository, error) {
	coll := db.Collection(logsCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	r := &mongoRepository{db: db, coll: coll, clock: newClock(opts)}

	var latest readingDocument
	err = coll.FindOne(ctx, bson.D{}, options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})).Decode(&latest)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
	case err != nil:
		return nil, fmt.Errorf("read latest timestamp: %w", err)
	default:
		r.clock.seed(latest.CreatedAt.UTC())
	}
	return r, nil
}

func (r *mongoRepository) Create(ctx context.Context, in types.NewReading) (types.Reading, error) {
	// BSON dates carry millisecond precision; keep the in-memory copy identical.
	now := r.clock.next().Truncate(time.Millisecond)
	doc := readingDocument{
		ID:          primitive.NewObjectID(),
		Temperature: in.Temperature,
		Status:      int(in.Status),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return types.Reading{}, fmt.Errorf("insert reading: %w", err)
	}
	return doc.toReading(), nil
}

func (r *mongoRepository) ListRecent(ctx context.Context, limit int) ([]types.Reading, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	var docs []readingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode readings: %w", err)
	}
	out := make([]types.Reading, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toReading())
	}
	return out, nil
}

func (r *mongoRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}

func (r *mongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.db.Client().Disconnect(ctx)
}
