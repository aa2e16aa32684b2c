// Package memstore is an in-memory implementation of the document store
// used by tests and local development. It mirrors the hosted store's
// semantics: merge writes, server timestamps, atomic increments, "in" query
// limits and live snapshot delivery.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"palabritas/internal/store"
)

// Memstore implements store.Store backed by in-process maps.
type Memstore struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	watchers    map[string][]*memWatcher
	failures    map[string]error
}

// New creates an empty in-memory store.
func New() *Memstore {
	return &Memstore{
		collections: make(map[string]map[string]map[string]any),
		watchers:    make(map[string][]*memWatcher),
		failures:    make(map[string]error),
	}
}

// FailCollection makes every operation on the given collection path return
// err until cleared with a nil err. Used by tests to simulate store I/O
// failures on one collection while others keep working.
func (m *Memstore) FailCollection(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, path)
		return
	}
	m.failures[path] = err
}

// Collection resolves an alternating collection/document path.
func (m *Memstore) Collection(path ...string) store.Collection {
	if len(path) == 0 || len(path)%2 == 0 {
		panic(fmt.Sprintf("memstore: invalid collection path %v", path))
	}
	return &memCollection{store: m, path: strings.Join(path, "/")}
}

// Close is a no-op for the in-memory store.
func (m *Memstore) Close() error {
	return nil
}

func (m *Memstore) docs(path string) map[string]map[string]any {
	col, ok := m.collections[path]
	if !ok {
		col = make(map[string]map[string]any)
		m.collections[path] = col
	}
	return col
}

// notifyLocked recomputes and pushes snapshots for every watcher on path.
// Caller holds m.mu.
func (m *Memstore) notifyLocked(path string) {
	for _, w := range m.watchers[path] {
		w.push(store.Snapshot{Docs: m.runQueryLocked(path, w.conds, w.order)})
	}
}

func (m *Memstore) runQueryLocked(path string, conds []condition, order *ordering) []store.Document {
	var docs []store.Document
	for id, data := range m.docs(path) {
		if matches(id, data, conds) {
			docs = append(docs, store.Document{ID: id, Data: copyDoc(data)})
		}
	}

	if order != nil {
		sort.SliceStable(docs, func(i, j int) bool {
			less := compareValues(docs[i].Data[order.field], docs[j].Data[order.field])
			if order.desc {
				return less > 0
			}
			return less < 0
		})
	} else {
		sort.SliceStable(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	}
	return docs
}

type memCollection struct {
	store *Memstore
	path  string
}

func (c *memCollection) Doc(id string) store.Doc {
	return &memDoc{store: c.store, path: c.path, id: id}
}

func (c *memCollection) Add(ctx context.Context, data map[string]any) (string, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if err := c.store.failures[c.path]; err != nil {
		return "", err
	}

	id := uuid.New().String()
	c.store.docs(c.path)[id] = resolveSentinels(nil, data)
	c.store.notifyLocked(c.path)
	return id, nil
}

func (c *memCollection) Query() store.Query {
	return &memQuery{store: c.store, path: c.path}
}

type memDoc struct {
	store *Memstore
	path  string
	id    string
}

func (d *memDoc) ID() string {
	return d.id
}

func (d *memDoc) Get(ctx context.Context) (map[string]any, error) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	if err := d.store.failures[d.path]; err != nil {
		return nil, err
	}

	data, ok := d.store.docs(d.path)[d.id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyDoc(data), nil
}

func (d *memDoc) Merge(ctx context.Context, data map[string]any) error {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	if err := d.store.failures[d.path]; err != nil {
		return err
	}

	col := d.store.docs(d.path)
	col[d.id] = resolveSentinels(col[d.id], data)
	d.store.notifyLocked(d.path)
	return nil
}

func (d *memDoc) Delete(ctx context.Context) error {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	if err := d.store.failures[d.path]; err != nil {
		return err
	}

	delete(d.store.docs(d.path), d.id)
	d.store.notifyLocked(d.path)
	return nil
}

type condition struct {
	field string
	op    string
	value any
}

type ordering struct {
	field string
	desc  bool
}

type memQuery struct {
	store *Memstore
	path  string
	conds []condition
	order *ordering
}

func (q *memQuery) Where(field, op string, value any) store.Query {
	next := *q
	next.conds = append(append([]condition{}, q.conds...), condition{field: field, op: op, value: normalize(value)})
	return &next
}

func (q *memQuery) OrderBy(field string, desc bool) store.Query {
	next := *q
	next.order = &ordering{field: field, desc: desc}
	return &next
}

func (q *memQuery) Documents(ctx context.Context) ([]store.Document, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	q.store.mu.Lock()
	defer q.store.mu.Unlock()

	if err := q.store.failures[q.path]; err != nil {
		return nil, err
	}
	return q.store.runQueryLocked(q.path, q.conds, q.order), nil
}

func (q *memQuery) Snapshots(ctx context.Context) store.Watcher {
	w := &memWatcher{
		store:   q.store,
		path:    q.path,
		conds:   q.conds,
		order:   q.order,
		updates: make(chan store.Snapshot, 1),
	}

	q.store.mu.Lock()
	defer q.store.mu.Unlock()

	if err := q.validate(); err != nil {
		w.push(store.Snapshot{Err: err})
		return w
	}
	if err := q.store.failures[q.path]; err != nil {
		w.push(store.Snapshot{Err: err})
		return w
	}

	q.store.watchers[q.path] = append(q.store.watchers[q.path], w)
	w.push(store.Snapshot{Docs: q.store.runQueryLocked(q.path, q.conds, q.order)})
	return w
}

func (q *memQuery) validate() error {
	for _, c := range q.conds {
		if c.op == "in" {
			if vals, ok := c.value.([]any); ok && len(vals) > store.InQueryLimit {
				return store.ErrTooManyInValues
			}
		}
	}
	return nil
}

// memWatcher delivers coalesced snapshots: a reader always observes the
// latest result set, intermediate states may be skipped.
type memWatcher struct {
	store   *Memstore
	path    string
	conds   []condition
	order   *ordering
	updates chan store.Snapshot
	stopped bool
}

func (w *memWatcher) Updates() <-chan store.Snapshot {
	return w.updates
}

func (w *memWatcher) Stop() {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true

	watchers := w.store.watchers[w.path]
	for i, other := range watchers {
		if other == w {
			w.store.watchers[w.path] = append(watchers[:i], watchers[i+1:]...)
			break
		}
	}
	close(w.updates)
}

// push replaces any undelivered snapshot with the latest one.
// Caller holds the store mutex, so pushes never race Stop.
func (w *memWatcher) push(snap store.Snapshot) {
	if w.stopped {
		return
	}
	select {
	case <-w.updates:
	default:
	}
	w.updates <- snap
}

func matches(id string, data map[string]any, conds []condition) bool {
	for _, c := range conds {
		var v any
		if c.field == store.DocumentID {
			v = id
		} else {
			v = normalize(data[c.field])
		}
		switch c.op {
		case "==":
			if v != c.value {
				return false
			}
		case "in":
			vals, ok := c.value.([]any)
			if !ok {
				return false
			}
			found := false
			for _, want := range vals {
				if v == normalize(want) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// resolveSentinels merges data over existing, applying server-timestamp and
// increment sentinels the way the hosted store does.
func resolveSentinels(existing, data map[string]any) map[string]any {
	out := make(map[string]any, len(existing)+len(data))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range data {
		switch sv := v.(type) {
		case store.IncrementValue:
			prev, _ := out[k].(int64)
			out[k] = prev + sv.N
		default:
			if v == store.ServerTimestamp {
				out[k] = time.Now().UTC()
			} else {
				out[k] = normalize(v)
			}
		}
	}
	return out
}

// normalize widens numeric values the way the hosted store stores them.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case []string:
		vals := make([]any, len(n))
		for i, s := range n {
			vals[i] = s
		}
		return vals
	default:
		return v
	}
}

func copyDoc(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return -1
		}
		switch {
		case av.Before(bv):
			return -1
		case av.After(bv):
			return 1
		}
		return 0
	case string:
		bv, _ := b.(string)
		return strings.Compare(av, bv)
	case int64:
		bv, _ := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case float64:
		bv, _ := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	default:
		return 0
	}
}
