package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore adapts a Cloud Firestore client to the Store interface.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestore connects to Firestore for the given project. When
// credentialsFile is empty the client falls back to application default
// credentials.
func NewFirestore(ctx context.Context, projectID, credentialsFile string) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &FirestoreStore{client: client}, nil
}

// Collection resolves an alternating collection/document path.
func (s *FirestoreStore) Collection(path ...string) Collection {
	if len(path) == 0 || len(path)%2 == 0 {
		panic(fmt.Sprintf("store: invalid collection path %v", path))
	}

	ref := s.client.Collection(path[0])
	for i := 1; i+1 < len(path); i += 2 {
		ref = ref.Doc(path[i]).Collection(path[i+1])
	}
	return &fsCollection{ref: ref}
}

// Close releases the underlying client connection.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

type fsCollection struct {
	ref *firestore.CollectionRef
}

func (c *fsCollection) Doc(id string) Doc {
	return &fsDoc{ref: c.ref.Doc(id)}
}

func (c *fsCollection) Add(ctx context.Context, data map[string]any) (string, error) {
	ref, _, err := c.ref.Add(ctx, translateSentinels(data))
	if err != nil {
		return "", fmt.Errorf("failed to add document: %w", err)
	}
	return ref.ID, nil
}

func (c *fsCollection) Query() Query {
	return &fsQuery{q: c.ref.Query, ref: c.ref}
}

type fsDoc struct {
	ref *firestore.DocumentRef
}

func (d *fsDoc) ID() string {
	return d.ref.ID
}

func (d *fsDoc) Get(ctx context.Context) (map[string]any, error) {
	snap, err := d.ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return snap.Data(), nil
}

func (d *fsDoc) Merge(ctx context.Context, data map[string]any) error {
	_, err := d.ref.Set(ctx, translateSentinels(data), firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to merge document: %w", err)
	}
	return nil
}

func (d *fsDoc) Delete(ctx context.Context) error {
	_, err := d.ref.Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

type fsQuery struct {
	q   firestore.Query
	ref *firestore.CollectionRef
}

func (q *fsQuery) Where(field, op string, value any) Query {
	if field == DocumentID {
		// Document-ID queries need DocumentRef values.
		field = firestore.DocumentID
		switch v := value.(type) {
		case string:
			value = q.ref.Doc(v)
		case []string:
			refs := make([]*firestore.DocumentRef, len(v))
			for i, id := range v {
				refs[i] = q.ref.Doc(id)
			}
			value = refs
		}
	}
	return &fsQuery{q: q.q.Where(field, op, value), ref: q.ref}
}

func (q *fsQuery) OrderBy(field string, desc bool) Query {
	dir := firestore.Asc
	if desc {
		dir = firestore.Desc
	}
	return &fsQuery{q: q.q.OrderBy(field, dir), ref: q.ref}
}

func (q *fsQuery) Documents(ctx context.Context) ([]Document, error) {
	it := q.q.Documents(ctx)
	defer it.Stop()

	var docs []Document
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate documents: %w", err)
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

const (
	watchBackoffInitial = time.Second
	watchBackoffMax     = 30 * time.Second
)

func (q *fsQuery) Snapshots(ctx context.Context) Watcher {
	ctx, cancel := context.WithCancel(ctx)
	w := &fsWatcher{
		updates: make(chan Snapshot, 16),
		cancel:  cancel,
		backoff: watchBackoffInitial,
	}
	go w.run(ctx, q.q)
	return w
}

type fsWatcher struct {
	updates chan Snapshot
	cancel  context.CancelFunc
	backoff time.Duration
}

func (w *fsWatcher) Updates() <-chan Snapshot {
	return w.updates
}

func (w *fsWatcher) Stop() {
	w.cancel()
}

func (w *fsWatcher) run(ctx context.Context, q firestore.Query) {
	defer close(w.updates)
	w.resume(ctx, func(ctx context.Context) (bool, error) {
		return w.stream(ctx, q)
	})
}

// resume runs stream until it fails, delivers a degraded snapshot, and
// re-establishes the stream with exponential backoff. The updates channel
// stays open until the watch is stopped, so callers never see a stream
// terminate on store error. Backoff resets once the stream delivers again.
func (w *fsWatcher) resume(ctx context.Context, stream func(context.Context) (bool, error)) {
	backoff := w.backoff
	for {
		delivered, err := stream(ctx)
		if ctx.Err() != nil {
			return
		}
		if delivered {
			backoff = w.backoff
		}
		w.deliver(ctx, Snapshot{Err: err})

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		if backoff < watchBackoffMax {
			backoff *= 2
		}
	}
}

// stream pumps query snapshots into the updates channel until the iterator
// fails or the context is cancelled. Reports whether it delivered at least
// one healthy snapshot.
func (w *fsWatcher) stream(ctx context.Context, q firestore.Query) (bool, error) {
	it := q.Snapshots(ctx)
	defer it.Stop()

	delivered := false
	for {
		qsnap, err := it.Next()
		if err != nil {
			return delivered, err
		}

		var docs []Document
		for {
			snap, err := qsnap.Documents.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return delivered, err
			}
			docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
		}

		w.deliver(ctx, Snapshot{Docs: docs})
		delivered = true
	}
}

func (w *fsWatcher) deliver(ctx context.Context, snap Snapshot) {
	select {
	case w.updates <- snap:
	case <-ctx.Done():
	}
}

// translateSentinels rewrites the store-neutral sentinels into their
// Firestore equivalents.
func translateSentinels(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		switch sv := v.(type) {
		case serverTimestamp:
			out[k] = firestore.ServerTimestamp
		case IncrementValue:
			out[k] = firestore.Increment(sv.N)
		default:
			out[k] = v
		}
	}
	return out
}
