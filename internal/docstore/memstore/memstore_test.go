package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bytebank/banksync/internal/common"
	"github.com/bytebank/banksync/internal/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tick returns a clock that advances one millisecond per call, so creation
// order and creation-time order coincide deterministically.
func tick() func() time.Time {
	base := time.UnixMilli(1700000000000)
	n := 0
	var mu sync.Mutex
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return base.Add(time.Duration(n) * time.Millisecond)
	}
}

func TestQuery_OrderAndLimit(t *testing.T) {
	s := NewWithClock(tick())
	col := s.Collection("transactions")
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := col.Add(ctx, map[string]any{docstore.FieldOwnerID: "u1", "n": i})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	docs, err := col.Query(ctx, docstore.Query{OwnerID: "u1", Limit: 3})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	// Newest first, truncated to the limit.
	assert.Equal(t, ids[4], docs[0].ID)
	assert.Equal(t, ids[3], docs[1].ID)
	assert.Equal(t, ids[2], docs[2].ID)
}

func TestQuery_EmptyIsNotError(t *testing.T) {
	s := New()
	docs, err := s.Collection("cards").Query(context.Background(), docstore.Query{OwnerID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCRUD_SettledState(t *testing.T) {
	s := NewWithClock(tick())
	col := s.Collection("transactions")
	ctx := context.Background()

	a, err := col.Add(ctx, map[string]any{docstore.FieldOwnerID: "u1", "amount": int64(100)})
	require.NoError(t, err)
	b, err := col.Add(ctx, map[string]any{docstore.FieldOwnerID: "u1", "amount": int64(200)})
	require.NoError(t, err)

	require.NoError(t, col.Update(ctx, a, map[string]any{"amount": int64(150)}))
	require.NoError(t, col.Delete(ctx, b))

	docs, err := col.Query(ctx, docstore.Query{OwnerID: "u1"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, a, docs[0].ID)
	assert.Equal(t, int64(150), docs[0].Fields["amount"])
	assert.NotNil(t, docs[0].Fields[docstore.FieldUpdatedAt])
}

func TestUpdate_MissingIsNotFound(t *testing.T) {
	s := New()
	err := s.Collection("transactions").Update(context.Background(), "nope", map[string]any{"x": 1})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete_Idempotent(t *testing.T) {
	s := New()
	col := s.Collection("transactions")
	require.NoError(t, col.Delete(context.Background(), "never-existed"))
}

func TestSubscribe_ImmediateSnapshotThenChanges(t *testing.T) {
	s := NewWithClock(tick())
	col := s.Collection("transactions")
	ctx := context.Background()

	_, err := col.Add(ctx, map[string]any{docstore.FieldOwnerID: "u1", "n": 0})
	require.NoError(t, err)

	var mu sync.Mutex
	var snapshots [][]docstore.Document
	cancel, err := col.Subscribe(docstore.Query{OwnerID: "u1"}, func(docs []docstore.Document) {
		mu.Lock()
		snapshots = append(snapshots, docs)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer cancel()

	mu.Lock()
	require.Len(t, snapshots, 1)
	assert.Len(t, snapshots[0], 1)
	mu.Unlock()

	_, err = col.Add(ctx, map[string]any{docstore.FieldOwnerID: "u1", "n": 1})
	require.NoError(t, err)

	mu.Lock()
	require.Len(t, snapshots, 2)
	assert.Len(t, snapshots[1], 2)
	mu.Unlock()
}

func TestSubscribe_SilentAfterCancel(t *testing.T) {
	s := NewWithClock(tick())
	col := s.Collection("transactions")
	ctx := context.Background()

	calls := 0
	cancel, err := col.Subscribe(docstore.Query{OwnerID: "u1"}, func([]docstore.Document) {
		calls++
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls) // initial snapshot

	cancel()

	_, err = col.Add(ctx, map[string]any{docstore.FieldOwnerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// Cancelling twice is fine.
	cancel()
}

func TestSubscribe_CancelRacingDelivery(t *testing.T) {
	s := NewWithClock(tick())
	col := s.Collection("transactions")
	ctx := context.Background()

	var mu sync.Mutex
	cancelled := false
	cancel, err := col.Subscribe(docstore.Query{OwnerID: "u1"}, func([]docstore.Document) {
		mu.Lock()
		// A delivery must never observe the post-cancel world.
		assert.False(t, cancelled)
		mu.Unlock()
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_, _ = col.Add(ctx, map[string]any{docstore.FieldOwnerID: "u1"})
		}
	}()

	cancel()
	mu.Lock()
	cancelled = true
	mu.Unlock()
	<-done
}

func TestSubscribe_OwnersDoNotInterfere(t *testing.T) {
	s := NewWithClock(tick())
	col := s.Collection("transactions")
	ctx := context.Background()

	var u1Snapshots [][]docstore.Document
	cancel, err := col.Subscribe(docstore.Query{OwnerID: "u1"}, func(docs []docstore.Document) {
		u1Snapshots = append(u1Snapshots, docs)
	})
	require.NoError(t, err)
	defer cancel()

	_, err = col.Add(ctx, map[string]any{docstore.FieldOwnerID: "u2"})
	require.NoError(t, err)

	// Only the initial empty snapshot; u2's change is invisible to u1.
	require.Len(t, u1Snapshots, 1)
	for _, docs := range u1Snapshots {
		for _, d := range docs {
			assert.Equal(t, "u1", d.Fields[docstore.FieldOwnerID])
		}
	}
}
