package transactions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bytebank/banksync/internal/common"
	"github.com/bytebank/banksync/internal/docstore"
	"github.com/bytebank/banksync/internal/logging"
	"github.com/bytebank/banksync/internal/models"
	"github.com/bytebank/banksync/internal/timex"
)

// Collection is the backend collection name for transactions.
const Collection = "transactions"

// balanceWindow bounds GetBalance to the most recent records. The balance is
// an explicit approximation: movements older than the window do not
// contribute, in exchange for never running an unbounded history scan.
const balanceWindow = 100

// DocRepository implements Repository over a docstore backend.
type DocRepository struct {
	col docstore.Collection
	log logging.Logger
	now func() time.Time
}

// NewDocRepository binds a repository to the transactions collection of
// store. Stateless apart from the backend handle; safe to share or to
// instantiate per view-model.
func NewDocRepository(store docstore.Store, log logging.Logger) *DocRepository {
	return &DocRepository{col: store.Collection(Collection), log: log, now: time.Now}
}

func (r *DocRepository) ListRecent(ctx context.Context, ownerID string, max int) ([]models.Transaction, error) {
	docs, err := r.col.Query(ctx, docstore.Query{OwnerID: ownerID, Limit: max})
	if err != nil {
		return nil, backendErr("list transactions", err)
	}
	return r.mapAll(docs), nil
}

func (r *DocRepository) Add(ctx context.Context, tx *models.Transaction) (string, error) {
	if err := validate(tx); err != nil {
		return "", err
	}

	id, err := r.col.Add(ctx, map[string]any{
		docstore.FieldOwnerID: tx.OwnerID,
		"type":                string(tx.Type),
		"amount":              tx.Amount,
		"description":         tx.Description,
		"category":            tx.Category,
	})
	if err != nil {
		return "", backendErr("add transaction", err)
	}
	return id, nil
}

// mutableFields are the only keys Update accepts. Owner id and creation time
// are immutable after creation.
var mutableFields = map[string]bool{
	"type":        true,
	"amount":      true,
	"description": true,
	"category":    true,
}

func (r *DocRepository) Update(ctx context.Context, id string, patch map[string]any) error {
	for k := range patch {
		if !mutableFields[k] {
			return fmt.Errorf("field %q is not updatable: %w", k, common.ErrValidation)
		}
	}
	if v, ok := patch["type"]; ok {
		s, _ := v.(string)
		if t := models.TransactionType(s); t != models.TransactionCredit && t != models.TransactionDebit {
			return fmt.Errorf("invalid transaction type %q: %w", s, common.ErrValidation)
		}
	}

	err := r.col.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return backendErr("update transaction", err)
	}
	return nil
}

func (r *DocRepository) Remove(ctx context.Context, id string) error {
	if err := r.col.Delete(ctx, id); err != nil {
		return backendErr("remove transaction", err)
	}
	return nil
}

func (r *DocRepository) Subscribe(ownerID string, max int, cb func([]models.Transaction)) (func(), error) {
	return r.col.Subscribe(docstore.Query{OwnerID: ownerID, Limit: max}, func(docs []docstore.Document) {
		cb(r.mapAll(docs))
	})
}

// GetBalance reduces the most recent balanceWindow transactions. See the
// window constant for the approximation this implies.
func (r *DocRepository) GetBalance(ctx context.Context, ownerID string) (int64, error) {
	txs, err := r.ListRecent(ctx, ownerID, balanceWindow)
	if err != nil {
		return 0, err
	}
	return Balance(txs), nil
}

func validate(tx *models.Transaction) error {
	if tx.OwnerID == "" {
		return fmt.Errorf("ownerId required: %w", common.ErrValidation)
	}
	if tx.Type != models.TransactionCredit && tx.Type != models.TransactionDebit {
		return fmt.Errorf("invalid transaction type %q: %w", tx.Type, common.ErrValidation)
	}
	if tx.Amount <= 0 {
		return fmt.Errorf("amount must be positive: %w", common.ErrValidation)
	}
	return nil
}

func (r *DocRepository) mapAll(docs []docstore.Document) []models.Transaction {
	out := make([]models.Transaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, r.mapDocument(d))
	}
	return out
}

// mapDocument coerces a raw backend document into a typed Transaction.
// Untyped payloads never travel past this boundary. A missing creation time
// means an optimistic local record; it gets the current local time as a
// placeholder. An update time is never substituted.
func (r *DocRepository) mapDocument(d docstore.Document) models.Transaction {
	f := d.Fields
	tx := models.Transaction{ID: d.ID}
	tx.OwnerID, _ = f[docstore.FieldOwnerID].(string)
	if s, ok := f["type"].(string); ok {
		tx.Type = models.TransactionType(s)
	}
	tx.Amount = asInt64(f["amount"])
	tx.Description, _ = f["description"].(string)
	tx.Category, _ = f["category"].(string)

	if ms, ok := timex.EpochMillis(f[docstore.FieldCreatedAt]); ok {
		tx.CreatedAt = ms
	} else {
		tx.CreatedAt = r.now().UnixMilli()
	}
	if ms, ok := timex.EpochMillis(f[docstore.FieldUpdatedAt]); ok {
		tx.UpdatedAt = ms
	}
	return tx
}

func asInt64(v any) int64 {
	switch value := v.(type) {
	case int64:
		return value
	case int:
		return int64(value)
	case float64:
		return int64(value)
	case json.Number:
		n, _ := value.Int64()
		return n
	default:
		return 0
	}
}

func backendErr(op string, err error) error {
	if errors.Is(err, common.ErrBackendUnavailable) || errors.Is(err, common.ErrValidation) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrBackendUnavailable, err)
}
