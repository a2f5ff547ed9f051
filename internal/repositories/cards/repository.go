// Package cards provides the observable repository for digital cards.
package cards

import (
	"context"

	"github.com/bytebank/banksync/internal/models"
)

// Repository describes query, write and subscription operations for Card
// records. Semantics follow the transactions repository: empty result sets
// are not errors, Remove is idempotent, and Subscribe delivers an immediate
// snapshot followed by every change until cancelled.
type Repository interface {
	List(ctx context.Context, ownerID string) ([]models.Card, error)
	Add(ctx context.Context, card *models.Card) (string, error)
	Update(ctx context.Context, id string, patch map[string]any) error
	Remove(ctx context.Context, id string) error
	Subscribe(ownerID string, cb func([]models.Card)) (func(), error)
}
