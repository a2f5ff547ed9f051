package investments

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/bytebank/banksync/internal/common"
	"github.com/bytebank/banksync/internal/docstore/memstore"
	"github.com/bytebank/banksync/internal/logging"
	"github.com/bytebank/banksync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) *DocRepository {
	t.Helper()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	return NewDocRepository(memstore.New(), log)
}

func TestSave_InsertsThenUpserts(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	id1, err := r.Save(ctx, "u1", "petr4", 10)
	require.NoError(t, err)

	list, err := r.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "PETR4", list[0].Ticker, "tickers are normalized to upper case")
	assert.Equal(t, float64(10), list[0].Quantity)

	// Same ticker again: the position is updated, not duplicated.
	id2, err := r.Save(ctx, "u1", "PETR4", 25)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	list, err = r.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, float64(25), list[0].Quantity)
}

func TestSave_Validation(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	_, err := r.Save(ctx, "", "PETR4", 1)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = r.Save(ctx, "u1", "  ", 1)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = r.Save(ctx, "u1", "PETR4", 0)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestSave_OwnersIsolated(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	_, err := r.Save(ctx, "u1", "VALE3", 5)
	require.NoError(t, err)
	_, err = r.Save(ctx, "u2", "VALE3", 7)
	require.NoError(t, err)

	u1, err := r.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, u1, 1)
	assert.Equal(t, float64(5), u1[0].Quantity)
}

func TestRemoveAndSubscribe(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	var snapshots [][]models.Investment
	cancel, err := r.Subscribe("u1", func(list []models.Investment) {
		snapshots = append(snapshots, list)
	})
	require.NoError(t, err)
	defer cancel()

	id, err := r.Save(ctx, "u1", "ITUB4", 3)
	require.NoError(t, err)
	require.NoError(t, r.Remove(ctx, id))
	require.NoError(t, r.Remove(ctx, id)) // idempotent

	// initial empty, after save, after remove
	require.Len(t, snapshots, 3)
	assert.Len(t, snapshots[1], 1)
	assert.Empty(t, snapshots[2])
}
