package investments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytebank/banksync/internal/common"
	"github.com/bytebank/banksync/internal/docstore"
	"github.com/bytebank/banksync/internal/logging"
	"github.com/bytebank/banksync/internal/models"
	"github.com/bytebank/banksync/internal/timex"
)

// Collection is the backend collection name for investment positions.
const Collection = "investments"

// DocRepository implements Repository over a docstore backend.
type DocRepository struct {
	col docstore.Collection
	log logging.Logger
	now func() time.Time
}

func NewDocRepository(store docstore.Store, log logging.Logger) *DocRepository {
	return &DocRepository{col: store.Collection(Collection), log: log, now: time.Now}
}

func (r *DocRepository) List(ctx context.Context, ownerID string) ([]models.Investment, error) {
	docs, err := r.col.Query(ctx, docstore.Query{OwnerID: ownerID})
	if err != nil {
		return nil, backendErr("list investments", err)
	}
	return r.mapAll(docs), nil
}

// Save upserts the position for (ownerID, ticker) and returns the record id.
func (r *DocRepository) Save(ctx context.Context, ownerID, ticker string, quantity float64) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ownerID == "" {
		return "", fmt.Errorf("ownerId required: %w", common.ErrValidation)
	}
	if ticker == "" {
		return "", fmt.Errorf("ticker required: %w", common.ErrValidation)
	}
	if quantity <= 0 {
		return "", fmt.Errorf("quantity must be positive: %w", common.ErrValidation)
	}

	docs, err := r.col.Query(ctx, docstore.Query{OwnerID: ownerID})
	if err != nil {
		return "", backendErr("lookup position", err)
	}
	for _, d := range docs {
		if tick, _ := d.Fields["ticker"].(string); tick == ticker {
			if err := r.col.Update(ctx, d.ID, map[string]any{"quantity": quantity}); err != nil {
				return "", backendErr("update position", err)
			}
			return d.ID, nil
		}
	}

	id, err := r.col.Add(ctx, map[string]any{
		docstore.FieldOwnerID: ownerID,
		"ticker":              ticker,
		"quantity":            quantity,
	})
	if err != nil {
		return "", backendErr("add position", err)
	}
	return id, nil
}

func (r *DocRepository) Remove(ctx context.Context, id string) error {
	if err := r.col.Delete(ctx, id); err != nil {
		return backendErr("remove position", err)
	}
	return nil
}

func (r *DocRepository) Subscribe(ownerID string, cb func([]models.Investment)) (func(), error) {
	return r.col.Subscribe(docstore.Query{OwnerID: ownerID}, func(docs []docstore.Document) {
		cb(r.mapAll(docs))
	})
}

func (r *DocRepository) mapAll(docs []docstore.Document) []models.Investment {
	out := make([]models.Investment, 0, len(docs))
	for _, d := range docs {
		out = append(out, r.mapDocument(d))
	}
	return out
}

func (r *DocRepository) mapDocument(d docstore.Document) models.Investment {
	f := d.Fields
	inv := models.Investment{ID: d.ID}
	inv.OwnerID, _ = f[docstore.FieldOwnerID].(string)
	inv.Ticker, _ = f["ticker"].(string)
	inv.Quantity = asFloat64(f["quantity"])

	if ms, ok := timex.EpochMillis(f[docstore.FieldCreatedAt]); ok {
		inv.CreatedAt = ms
	} else {
		inv.CreatedAt = r.now().UnixMilli()
	}
	if ms, ok := timex.EpochMillis(f[docstore.FieldUpdatedAt]); ok {
		inv.UpdatedAt = ms
	}
	return inv
}

func asFloat64(v any) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case int64:
		return float64(value)
	case int:
		return float64(value)
	case json.Number:
		n, _ := value.Float64()
		return n
	default:
		return 0
	}
}

func backendErr(op string, err error) error {
	if errors.Is(err, common.ErrBackendUnavailable) || errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrBackendUnavailable, err)
}
