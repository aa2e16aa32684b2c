package store

import (
	"context"
	"errors"
)

// InQueryLimit is the maximum number of values a single "in" query accepts.
// Callers with more values must chunk.
const InQueryLimit = 10

// DocumentID is the pseudo-field that queries a document's own ID.
const DocumentID = "__id__"

var (
	// ErrNotFound is returned by Doc.Get when the document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrTooManyInValues is returned when an "in" query exceeds InQueryLimit.
	ErrTooManyInValues = errors.New("too many values for in query")
)

// serverTimestamp is the sentinel type behind ServerTimestamp.
type serverTimestamp struct{}

// ServerTimestamp is a sentinel field value that the store replaces with the
// server-assigned write time.
var ServerTimestamp = serverTimestamp{}

// IncrementValue is a sentinel field value that atomically adds N to the
// stored numeric field, creating it at N when absent.
type IncrementValue struct {
	N int64
}

// Increment returns an atomic-increment sentinel for merge writes.
func Increment(n int64) IncrementValue {
	return IncrementValue{N: n}
}

// Document is one record read from a collection.
type Document struct {
	ID   string
	Data map[string]any
}

// Snapshot is one delivery from a live subscription. Err is set when the
// underlying watch failed; Docs is empty in that case.
type Snapshot struct {
	Docs []Document
	Err  error
}

// Watcher is a live subscription to a query. Updates delivers the current
// result set on every change until Stop is called or the context ends.
type Watcher interface {
	Updates() <-chan Snapshot
	Stop()
}

// Query builds a collection query. Implementations support the "==" and
// "in" operators and a single ordering.
type Query interface {
	Where(field, op string, value any) Query
	OrderBy(field string, desc bool) Query
	Documents(ctx context.Context) ([]Document, error)
	Snapshots(ctx context.Context) Watcher
}

// Doc addresses a single document.
type Doc interface {
	ID() string
	Get(ctx context.Context) (map[string]any, error)
	// Merge performs a partial update, only overwriting named fields.
	// ServerTimestamp and IncrementValue sentinels are resolved atomically.
	Merge(ctx context.Context, data map[string]any) error
	Delete(ctx context.Context) error
}

// Collection addresses one collection or sub-collection.
type Collection interface {
	Doc(id string) Doc
	// Add creates a document with a store-generated ID.
	Add(ctx context.Context, data map[string]any) (string, error)
	Query() Query
}

// Store is the document-database collaborator: collection-scoped queries,
// live change subscriptions, merge writes with last-write-wins semantics,
// server timestamps and atomic numeric increments.
//
// Collection takes an alternating path of collection and document IDs, e.g.
// Collection("students") or Collection("students", sid, "dictionary").
type Store interface {
	Collection(path ...string) Collection
	Close() error
}
