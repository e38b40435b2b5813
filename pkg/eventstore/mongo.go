package eventstore

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/blockforge/pkg/events"
)

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string
	Database   string // defaults to "blockforge"
	Collection string // defaults to "events"
}

// eventDoc is the stored form: one envelope plus a per-process sequence
// number so Load can return a stable append order.
type eventDoc struct {
	WorkspaceID string          `bson:"workspaceId"`
	Seq         int64           `bson:"seq"`
	Envelope    events.Envelope `bson:"envelope"`
}

// MongoStore is a MongoDB-backed event log with durable history.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	seq    atomic.Int64
}

// NewMongoStore connects to MongoDB and prepares the event collection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "blockforge"
	}
	if cfg.Collection == "" {
		cfg.Collection = "events"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	s := &MongoStore{client: client, coll: coll}

	// Resume the sequence after the last stored document.
	opts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})
	var last eventDoc
	err = coll.FindOne(ctx, bson.D{}, opts).Decode(&last)
	switch {
	case err == nil:
		s.seq.Store(last.Seq)
	case err == mongo.ErrNoDocuments:
		// Empty collection, start from zero.
	default:
		return nil, fmt.Errorf("read last event: %w", err)
	}
	return s, nil
}

func (s *MongoStore) Append(ctx context.Context, workspaceID string, env events.Envelope) error {
	doc := eventDoc{
		WorkspaceID: workspaceID,
		Seq:         s.seq.Add(1),
		Envelope:    env,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *MongoStore) Load(ctx context.Context, workspaceID string) ([]events.Envelope, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{{Key: "workspaceId", Value: workspaceID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer cur.Close(ctx)

	out := []events.Envelope{}
	for cur.Next(ctx) {
		var doc eventDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, doc.Envelope)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Clear(ctx context.Context, workspaceID string) error {
	if _, err := s.coll.DeleteMany(ctx, bson.D{{Key: "workspaceId", Value: workspaceID}}); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
