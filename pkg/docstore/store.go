// Package docstore persists graph documents by graph id.
//
// Documents are always stored in their canonical encoding (document.Marshal),
// so the stored bytes hash to the same value as document.Hash and a document
// read back is equal to the normalized document that was written.
//
// Two backends implement [Store]:
//
//   - [FileStore]: one JSON file per graph under a directory
//   - [MongoStore]: one record per graph in a MongoDB collection
package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/nodeflow/pkg/document"
	"github.com/matzehuels/nodeflow/pkg/ids"
)

// ErrNotFound is returned by Get and Delete for an unknown graph id.
var ErrNotFound = errors.New("docstore: document not found")

// Entry describes one stored document.
type Entry struct {
	GraphID   ids.GraphID
	Hash      string // document.Hash of the stored document
	UpdatedAt time.Time
}

// Store persists documents keyed by their graph id. Put replaces any
// document already stored under the same id.
type Store interface {
	Put(ctx context.Context, d *document.Document) (Entry, error)
	Get(ctx context.Context, id ids.GraphID) (*document.Document, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, id ids.GraphID) error
	Close() error
}
