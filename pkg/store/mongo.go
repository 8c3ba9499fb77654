package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/stackdiagram/pkg/diagram"
	"github.com/matzehuels/stackdiagram/pkg/errors"
)

const (
	// DefaultDatabase is the database used when the URI names none.
	DefaultDatabase = "stackdiagram"

	// CollectionRenders holds one document per render.
	CollectionRenders = "renders"
)

// MongoStore stores records in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB at uri and ensures the collection's
// indexes. database defaults to [DefaultDatabase].
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultDatabase
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := &MongoStore{client: client, coll: client.Database(database).Collection(CollectionRenders)}
	_, err = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create index: %w", err)
	}
	return s, nil
}

type mongoRecord struct {
	ID        string            `bson:"_id"`
	Title     string            `bson:"title"`
	Hash      string            `bson:"hash"`
	Formats   []string          `bson:"formats"`
	Artifacts map[string][]byte `bson:"artifacts,omitempty"`
	Nodes     int               `bson:"nodes"`
	Clusters  int               `bson:"clusters"`
	Edges     int               `bson:"edges"`
	MaxDepth  int               `bson:"max_depth"`
	CreatedAt time.Time         `bson:"created_at"`
}

func toMongo(r *Record) mongoRecord {
	return mongoRecord{
		ID:        r.ID.String(),
		Title:     r.Title,
		Hash:      r.Hash,
		Formats:   r.Formats,
		Artifacts: r.Artifacts,
		Nodes:     r.Stats.Nodes,
		Clusters:  r.Stats.Clusters,
		Edges:     r.Stats.Edges,
		MaxDepth:  r.Stats.MaxDepth,
		CreatedAt: r.CreatedAt,
	}
}

func (m mongoRecord) record() (*Record, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("stored record id %q: %w", m.ID, err)
	}
	return &Record{
		ID:        id,
		Title:     m.Title,
		Hash:      m.Hash,
		Formats:   m.Formats,
		Artifacts: m.Artifacts,
		Stats:     diagram.Stats{Nodes: m.Nodes, Clusters: m.Clusters, Edges: m.Edges, MaxDepth: m.MaxDepth},
		CreatedAt: m.CreatedAt,
	}, nil
}

// Save implements Store.
func (s *MongoStore) Save(ctx context.Context, r *Record) error {
	if r.ID == uuid.Nil {
		return errors.New(errors.ErrCodeInvalidInput, "record has no id")
	}
	doc := toMongo(r)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save render %s: %w", r.ID, err)
	}
	return nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	var doc mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeNotFound, "render %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get render %s: %w", id, err)
	}
	return doc.record()
}

// List implements Store.
func (s *MongoStore) List(ctx context.Context, limit int) ([]*Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(normalizeLimit(limit))).
		SetProjection(bson.M{"artifacts": 0})

	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	var docs []mongoRecord
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}

	out := make([]*Record, 0, len(docs))
	for _, d := range docs {
		r, err := d.record()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Close implements Store.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
