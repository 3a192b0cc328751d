//go:build integration

package docstore

import (
	"context"
	"os"
	"testing"
)

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("NODEFLOW_MONGO_URI")
	if uri == "" {
		t.Skip("NODEFLOW_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, MongoConfig{
		URI:        uri,
		Database:   "nodeflow_test",
		Collection: "graphs_" + t.Name(),
	})
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	defer s.Close()
	defer s.coll.Drop(ctx)

	exerciseStore(t, s)
}
