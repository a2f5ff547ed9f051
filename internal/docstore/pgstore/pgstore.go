// Package pgstore is the Postgres docstore backend. Documents live in a
// single table as JSONB rows; live subscriptions are driven by a
// LISTEN/NOTIFY trigger: every row change notifies the collection name, and a
// dedicated listener connection re-runs each registered query and delivers a
// fresh snapshot to its callback.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bytebank/banksync/internal/common"
	"github.com/bytebank/banksync/internal/docstore"
	"github.com/bytebank/banksync/internal/docstore/pgstore/migrations"
	"github.com/bytebank/banksync/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const notifyChannel = "docstore_changes"

// Store is a docstore.Store backed by Postgres.
type Store struct {
	db  *sql.DB
	dsn string
	log logging.Logger

	mu      sync.Mutex
	subs    map[int64]*subscription
	nextSub int64

	stopListen context.CancelFunc
	done       chan struct{}
}

// New opens the database, applies migrations and starts the notification
// listener.
func New(ctx context.Context, dsn string, log logging.Logger) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	s := &Store{
		db:   db,
		dsn:  dsn,
		log:  log,
		subs: map[int64]*subscription{},
		done: make(chan struct{}),
	}

	if err := s.runMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	s.stopListen = cancel
	go s.listen(listenCtx)

	return s, nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	return goose.UpContext(ctx, s.db, ".")
}

func (s *Store) Collection(name string) docstore.Collection {
	return &Collection{store: s, name: name}
}

// Close stops the listener and closes the database. Registered subscriptions
// stop receiving deliveries.
func (s *Store) Close() error {
	s.stopListen()
	<-s.done
	return s.db.Close()
}

// listen keeps one LISTEN connection alive, reconnecting on failure.
func (s *Store) listen(ctx context.Context) {
	defer close(s.done)
	for {
		if ctx.Err() != nil {
			return
		}
		err := s.listenOnce(ctx)
		if err != nil && ctx.Err() == nil {
			s.log.Error(ctx, "docstore listener failed, reconnecting", "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Store) listenOnce(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, s.dsn)
	if err != nil {
		return fmt.Errorf("listener connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "listen "+notifyChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		s.fanout(ctx, n.Payload)
	}
}

// fanout re-runs every query subscribed to the changed collection and
// delivers fresh snapshots. A failed re-query is logged and skipped so the
// subscriber keeps its previous good state.
func (s *Store) fanout(ctx context.Context, collection string) {
	s.mu.Lock()
	var affected []*subscription
	for _, sub := range s.subs {
		if sub.collection == collection {
			affected = append(affected, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range affected {
		docs, err := s.query(ctx, sub.collection, sub.q)
		if err != nil {
			s.log.Error(ctx, "subscription re-query failed", "collection", collection, "error", err)
			continue
		}
		sub.deliver(docs)
	}
}

func (s *Store) query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	sqlText := `SELECT id, owner_id, fields, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND ($2 = '' OR owner_id = $2)
		ORDER BY created_at DESC, id DESC`
	args := []any{collection, q.OwnerID}
	if q.Limit > 0 {
		sqlText += ` LIMIT $3`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w: %w", collection, common.ErrBackendUnavailable, err)
	}
	defer rows.Close()

	var result []docstore.Document
	for rows.Next() {
		var (
			id, owner string
			raw       []byte
			created   time.Time
			updated   sql.NullTime
		)
		if err := rows.Scan(&id, &owner, &raw, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan %s: %w: %w", collection, common.ErrBackendUnavailable, err)
		}
		fields := map[string]any{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("decode %s: %w: %w", collection, common.ErrBackendUnavailable, err)
		}
		fields[docstore.FieldOwnerID] = owner
		fields[docstore.FieldCreatedAt] = created
		if updated.Valid {
			fields[docstore.FieldUpdatedAt] = updated.Time
		}
		result = append(result, docstore.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows %s: %w: %w", collection, common.ErrBackendUnavailable, err)
	}
	return result, nil
}

// Collection is a named view over the documents table.
type Collection struct {
	store *Store
	name  string
}

func (c *Collection) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	return c.store.query(ctx, c.name, q)
}

func (c *Collection) Add(ctx context.Context, fields map[string]any) (string, error) {
	id := uuid.NewString()
	owner, _ := fields[docstore.FieldOwnerID].(string)

	raw, err := json.Marshal(stripShared(fields))
	if err != nil {
		return "", fmt.Errorf("encode fields: %w: %w", common.ErrValidation, err)
	}

	_, err = c.store.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, owner_id, fields) VALUES ($1, $2, $3, $4)`,
		id, c.name, owner, raw)
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w: %w", c.name, common.ErrBackendUnavailable, err)
	}
	return id, nil
}

func (c *Collection) Update(ctx context.Context, id string, fields map[string]any) error {
	raw, err := json.Marshal(stripShared(fields))
	if err != nil {
		return fmt.Errorf("encode fields: %w: %w", common.ErrValidation, err)
	}

	res, err := c.store.db.ExecContext(ctx,
		`UPDATE documents SET fields = fields || $3::jsonb, updated_at = now()
		 WHERE id = $1 AND collection = $2`,
		id, c.name, raw)
	if err != nil {
		return fmt.Errorf("update %s: %w: %w", c.name, common.ErrBackendUnavailable, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if ra == 0 {
		return fmt.Errorf("document %q: %w", id, common.ErrNotFound)
	}
	return nil
}

func (c *Collection) Delete(ctx context.Context, id string) error {
	_, err := c.store.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = $1 AND collection = $2`, id, c.name)
	if err != nil {
		return fmt.Errorf("delete from %s: %w: %w", c.name, common.ErrBackendUnavailable, err)
	}
	return nil
}

func (c *Collection) Subscribe(q docstore.Query, cb func([]docstore.Document)) (func(), error) {
	sub := &subscription{collection: c.name, q: q, cb: cb, active: true}

	s := c.store
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = sub
	s.mu.Unlock()

	// Initial snapshot before any change event.
	docs, err := s.query(context.Background(), c.name, q)
	if err != nil {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		return nil, err
	}
	sub.deliver(docs)

	cancel := func() {
		sub.cancelDelivery()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return cancel, nil
}

type subscription struct {
	collection string
	q          docstore.Query
	cb         func([]docstore.Document)

	mu     sync.Mutex
	active bool
}

// deliver invokes the callback unless cancelled; the mutex guarantees no
// delivery reaches the callback once cancelDelivery has returned, even if a
// notification was already in flight.
func (s *subscription) deliver(docs []docstore.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.cb(docs)
}

func (s *subscription) cancelDelivery() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// stripShared drops fields the table stores in dedicated columns so they are
// not duplicated inside the JSONB payload.
func stripShared(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case docstore.FieldOwnerID, docstore.FieldCreatedAt, docstore.FieldUpdatedAt:
			continue
		}
		out[k] = v
	}
	return out
}
