package cards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytebank/banksync/internal/common"
	"github.com/bytebank/banksync/internal/docstore"
	"github.com/bytebank/banksync/internal/logging"
	"github.com/bytebank/banksync/internal/models"
	"github.com/bytebank/banksync/internal/timex"
)

// Collection is the backend collection name for cards.
const Collection = "cards"

// DocRepository implements Repository over a docstore backend.
type DocRepository struct {
	col docstore.Collection
	log logging.Logger
	now func() time.Time
}

func NewDocRepository(store docstore.Store, log logging.Logger) *DocRepository {
	return &DocRepository{col: store.Collection(Collection), log: log, now: time.Now}
}

func (r *DocRepository) List(ctx context.Context, ownerID string) ([]models.Card, error) {
	docs, err := r.col.Query(ctx, docstore.Query{OwnerID: ownerID})
	if err != nil {
		return nil, backendErr("list cards", err)
	}
	return r.mapAll(docs), nil
}

func (r *DocRepository) Add(ctx context.Context, card *models.Card) (string, error) {
	if card.OwnerID == "" {
		return "", fmt.Errorf("ownerId required: %w", common.ErrValidation)
	}
	if card.Kind != models.CardCredit && card.Kind != models.CardDebit {
		return "", fmt.Errorf("invalid card kind %q: %w", card.Kind, common.ErrValidation)
	}
	if len(card.Last4) != 4 {
		return "", fmt.Errorf("last4 must be four digits: %w", common.ErrValidation)
	}

	id, err := r.col.Add(ctx, map[string]any{
		docstore.FieldOwnerID: card.OwnerID,
		"alias":               card.Alias,
		"last4":               card.Last4,
		"brand":               card.Brand,
		"kind":                string(card.Kind),
		"blocked":             card.Blocked,
	})
	if err != nil {
		return "", backendErr("add card", err)
	}
	return id, nil
}

var mutableFields = map[string]bool{
	"alias":   true,
	"blocked": true,
}

func (r *DocRepository) Update(ctx context.Context, id string, patch map[string]any) error {
	for k := range patch {
		if !mutableFields[k] {
			return fmt.Errorf("field %q is not updatable: %w", k, common.ErrValidation)
		}
	}
	err := r.col.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return backendErr("update card", err)
	}
	return nil
}

func (r *DocRepository) Remove(ctx context.Context, id string) error {
	if err := r.col.Delete(ctx, id); err != nil {
		return backendErr("remove card", err)
	}
	return nil
}

func (r *DocRepository) Subscribe(ownerID string, cb func([]models.Card)) (func(), error) {
	return r.col.Subscribe(docstore.Query{OwnerID: ownerID}, func(docs []docstore.Document) {
		cb(r.mapAll(docs))
	})
}

func (r *DocRepository) mapAll(docs []docstore.Document) []models.Card {
	out := make([]models.Card, 0, len(docs))
	for _, d := range docs {
		out = append(out, r.mapDocument(d))
	}
	return out
}

func (r *DocRepository) mapDocument(d docstore.Document) models.Card {
	f := d.Fields
	card := models.Card{ID: d.ID}
	card.OwnerID, _ = f[docstore.FieldOwnerID].(string)
	card.Alias, _ = f["alias"].(string)
	card.Last4, _ = f["last4"].(string)
	card.Brand, _ = f["brand"].(string)
	if s, ok := f["kind"].(string); ok {
		card.Kind = models.CardKind(s)
	}
	card.Blocked, _ = f["blocked"].(bool)

	if ms, ok := timex.EpochMillis(f[docstore.FieldCreatedAt]); ok {
		card.CreatedAt = ms
	} else {
		card.CreatedAt = r.now().UnixMilli()
	}
	if ms, ok := timex.EpochMillis(f[docstore.FieldUpdatedAt]); ok {
		card.UpdatedAt = ms
	}
	return card
}

func backendErr(op string, err error) error {
	if errors.Is(err, common.ErrBackendUnavailable) || errors.Is(err, common.ErrValidation) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrBackendUnavailable, err)
}
