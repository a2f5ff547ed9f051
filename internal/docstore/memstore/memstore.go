// Package memstore is an in-memory docstore backend. It backs unit tests and
// the demo mode of the CLI, with the same query and subscription semantics as
// the Postgres backend: server-assigned ids and timestamps, createdAt-desc
// ordering, and change fanout to live subscriptions.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bytebank/banksync/internal/common"
	"github.com/bytebank/banksync/internal/docstore"
	"github.com/bytebank/banksync/internal/timex"
	"github.com/google/uuid"
)

// Store holds all collections. Safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	cols map[string]*Collection
	now  func() time.Time
}

// New returns an empty store using the wall clock.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock returns an empty store stamping server timestamps from now.
// Tests use it to make creation times deterministic.
func NewWithClock(now func() time.Time) *Store {
	return &Store{cols: map[string]*Collection{}, now: now}
}

func (s *Store) Collection(name string) docstore.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cols[name]
	if !ok {
		c = &Collection{
			now:  s.now,
			docs: map[string]*document{},
			subs: map[int64]*subscription{},
		}
		s.cols[name] = c
	}
	return c
}

func (s *Store) Close() error { return nil }

type document struct {
	fields map[string]any
	seq    int64
}

// Collection is one named in-memory collection.
type Collection struct {
	mu      sync.Mutex
	now     func() time.Time
	docs    map[string]*document
	seq     int64
	subs    map[int64]*subscription
	nextSub int64
}

func (c *Collection) Query(_ context.Context, q docstore.Query) ([]docstore.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot(q), nil
}

func (c *Collection) Add(_ context.Context, fields map[string]any) (string, error) {
	c.mu.Lock()
	id := uuid.NewString()
	f := cloneFields(fields)
	f[docstore.FieldCreatedAt] = c.now()
	c.seq++
	c.docs[id] = &document{fields: f, seq: c.seq}
	deliveries := c.pending(ownerOf(f))
	c.mu.Unlock()

	dispatch(deliveries)
	return id, nil
}

func (c *Collection) Update(_ context.Context, id string, fields map[string]any) error {
	c.mu.Lock()
	doc, ok := c.docs[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("document %q: %w", id, common.ErrNotFound)
	}
	for k, v := range fields {
		doc.fields[k] = v
	}
	doc.fields[docstore.FieldUpdatedAt] = c.now()
	deliveries := c.pending(ownerOf(doc.fields))
	c.mu.Unlock()

	dispatch(deliveries)
	return nil
}

func (c *Collection) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	doc, ok := c.docs[id]
	if !ok {
		// Idempotent: nothing to delete, nothing changed.
		c.mu.Unlock()
		return nil
	}
	delete(c.docs, id)
	deliveries := c.pending(ownerOf(doc.fields))
	c.mu.Unlock()

	dispatch(deliveries)
	return nil
}

func (c *Collection) Subscribe(q docstore.Query, cb func([]docstore.Document)) (func(), error) {
	c.mu.Lock()
	c.nextSub++
	id := c.nextSub
	sub := &subscription{active: true, q: q, cb: cb}
	c.subs[id] = sub
	first := c.snapshot(q)
	c.mu.Unlock()

	sub.deliver(first)

	cancel := func() {
		sub.cancel()
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
	return cancel, nil
}

// snapshot returns the matching set for q, createdAt descending, ties broken
// by insertion order (newest first). Caller must hold c.mu.
func (c *Collection) snapshot(q docstore.Query) []docstore.Document {
	matched := make([]docstore.Document, 0)
	seqs := map[string]int64{}
	for id, doc := range c.docs {
		if q.OwnerID != "" && ownerOf(doc.fields) != q.OwnerID {
			continue
		}
		matched = append(matched, docstore.Document{ID: id, Fields: cloneFields(doc.fields)})
		seqs[id] = doc.seq
	}
	sort.Slice(matched, func(i, j int) bool {
		mi, _ := timex.EpochMillis(matched[i].Fields[docstore.FieldCreatedAt])
		mj, _ := timex.EpochMillis(matched[j].Fields[docstore.FieldCreatedAt])
		if mi != mj {
			return mi > mj
		}
		return seqs[matched[i].ID] > seqs[matched[j].ID]
	})
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched
}

type delivery struct {
	sub  *subscription
	docs []docstore.Document
}

// pending collects fresh snapshots for every subscription whose matching set
// the change to ownerID may have affected. Caller must hold c.mu; the actual
// callbacks run after it is released so a callback may safely re-enter the
// collection.
func (c *Collection) pending(ownerID string) []delivery {
	var out []delivery
	for _, sub := range c.subs {
		if sub.q.OwnerID != "" && sub.q.OwnerID != ownerID {
			continue
		}
		out = append(out, delivery{sub: sub, docs: c.snapshot(sub.q)})
	}
	return out
}

func dispatch(deliveries []delivery) {
	for _, d := range deliveries {
		d.sub.deliver(d.docs)
	}
}

type subscription struct {
	mu     sync.Mutex
	active bool
	q      docstore.Query
	cb     func([]docstore.Document)
}

// deliver invokes the callback unless the subscription was cancelled. The
// mutex makes cancellation a hard barrier: once cancel returns, no delivery
// already in flight can reach the callback.
func (s *subscription) deliver(docs []docstore.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.cb(docs)
}

func (s *subscription) cancel() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

func ownerOf(fields map[string]any) string {
	owner, _ := fields[docstore.FieldOwnerID].(string)
	return owner
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
