// Package investments provides the observable repository for investment
// positions. Positions are keyed by ticker per owner; Save upserts.
package investments

import (
	"context"

	"github.com/bytebank/banksync/internal/models"
)

// Repository describes query, write and subscription operations for
// Investment records. Quote enrichment (price, long name, logo) is the
// view-model's job via the quotes client; only ticker and quantity persist.
type Repository interface {
	List(ctx context.Context, ownerID string) ([]models.Investment, error)
	Save(ctx context.Context, ownerID, ticker string, quantity float64) (string, error)
	Remove(ctx context.Context, id string) error
	Subscribe(ownerID string, cb func([]models.Investment)) (func(), error)
}
