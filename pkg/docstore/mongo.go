package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/nodeflow/pkg/buildinfo"
	"github.com/matzehuels/nodeflow/pkg/cache"
	"github.com/matzehuels/nodeflow/pkg/document"
	"github.com/matzehuels/nodeflow/pkg/ids"
)

// DefaultCollection is the collection MongoStore uses when none is given.
const DefaultCollection = "graphs"

// record is the stored shape of one document. Canonical holds the exact
// bytes of document.Marshal so hashes survive the round trip.
type record struct {
	GraphID   string    `bson:"_id"`
	Hash      string    `bson:"hash"`
	Canonical string    `bson:"canonical,omitempty"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps documents in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// MongoConfig configures [NewMongoStore].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string // defaults to DefaultCollection
}

// NewMongoStore connects to MongoDB and verifies the connection with a ping,
// retried with backoff.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		return nil, errors.New("docstore: mongo database is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetAppName(buildinfo.UserAgent()))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return cache.Retryable(fmt.Errorf("%w: mongo ping: %v", cache.ErrNetwork, err))
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    time.Now,
	}, nil
}

// Put upserts the canonical encoding of d.
func (s *MongoStore) Put(ctx context.Context, d *document.Document) (Entry, error) {
	data, err := document.Marshal(d)
	if err != nil {
		return Entry{}, err
	}
	rec := record{
		GraphID:   string(d.GraphID),
		Hash:      cache.Hash(data),
		Canonical: string(data),
		UpdatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": rec.GraphID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return Entry{}, fmt.Errorf("put document %s: %w", d.GraphID, err)
	}
	return rec.entry(), nil
}

// Get loads and parses the document stored for id.
func (s *MongoStore) Get(ctx context.Context, id ids.GraphID) (*document.Document, error) {
	var rec record
	err := s.coll.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return document.Parse([]byte(rec.Canonical))
}

// List returns every stored document sorted by graph id. Document bodies are
// not fetched.
func (s *MongoStore) List(ctx context.Context) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"canonical": 0})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var recs []record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]Entry, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.entry())
	}
	return out, nil
}

// Delete removes the document stored for id.
func (s *MongoStore) Delete(ctx context.Context, id ids.GraphID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

func (r record) entry() Entry {
	return Entry{GraphID: ids.GraphID(r.GraphID), Hash: r.Hash, UpdatedAt: r.UpdatedAt}
}

var _ Store = (*MongoStore)(nil)
