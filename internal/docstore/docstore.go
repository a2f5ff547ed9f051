// Package docstore defines the document-backend abstraction the observable
// repositories are built on: per-collection CRUD, a filtered/ordered/limited
// one-shot query, and a live-subscription variant of the same query.
//
// # Contract
//
// Subscribe invokes the callback once immediately with the current matching
// set, then again on every change to that set, in the order the backend
// observed the changes. The returned cancel function is idempotent; after it
// returns, the callback is never invoked again, even for an event already in
// flight. Subscriptions for different owners are independent.
//
// Timestamps inside Document.Fields ("createdAt", "updatedAt") are raw
// backend values: a time.Time, a numeric epoch-millis value, or absent for
// an optimistic record the server has not acknowledged. Normalization is the
// repositories' job (see internal/timex).
package docstore

import "context"

// Field names every collection shares.
const (
	FieldOwnerID   = "ownerId"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Document is a raw record as the backend reports it.
type Document struct {
	ID     string
	Fields map[string]any
}

// Query selects documents owned by OwnerID, ordered by creation time
// descending. Limit <= 0 means no limit.
type Query struct {
	OwnerID string
	Limit   int
}

// Collection exposes one named document collection.
type Collection interface {
	// Query runs the one-shot variant of q. No matches is an empty slice,
	// not an error.
	Query(ctx context.Context, q Query) ([]Document, error)

	// Add persists a new document and returns its server-assigned id.
	// The store stamps createdAt server-side.
	Add(ctx context.Context, fields map[string]any) (string, error)

	// Update merges fields into an existing document and stamps updatedAt.
	// Returns common.ErrNotFound if id does not exist.
	Update(ctx context.Context, id string, fields map[string]any) error

	// Delete removes the document. Deleting a nonexistent id is not an error.
	Delete(ctx context.Context, id string) error

	// Subscribe establishes a live subscription for q and returns its cancel
	// function.
	Subscribe(q Query, cb func([]Document)) (func(), error)
}

// Store is a handle on the backend, giving access to named collections.
type Store interface {
	Collection(name string) Collection
	Close() error
}
