// Package transactions provides the observable repository for account
// movements: one-shot queries, writes, a live subscription over the same
// query, and the derived balance aggregation.
package transactions

import (
	"context"

	"github.com/bytebank/banksync/internal/models"
)

// Repository describes query, write and subscription operations for
// Transaction records.
//
// Contract:
//   - ListRecent: up to max records for the owner, newest first; no matches
//     is an empty slice, not an error.
//   - Add: persists a record with server-assigned id and creation time and
//     returns the id.
//   - Update: merges the given fields and stamps an update time. Owner id
//     and creation time are immutable; a patch naming them is rejected.
//   - Remove: idempotent delete.
//   - Subscribe: live variant of ListRecent; the callback fires once with
//     the current set, then on every change, and never after cancel.
//   - GetBalance: derived balance over a bounded recent window.
type Repository interface {
	ListRecent(ctx context.Context, ownerID string, max int) ([]models.Transaction, error)
	Add(ctx context.Context, tx *models.Transaction) (string, error)
	Update(ctx context.Context, id string, patch map[string]any) error
	Remove(ctx context.Context, id string) error
	Subscribe(ownerID string, max int, cb func([]models.Transaction)) (func(), error)
	GetBalance(ctx context.Context, ownerID string) (int64, error)
}

// Balance reduces transactions to credits minus debits, in cents. Pure and
// order-independent over the record set.
func Balance(txs []models.Transaction) int64 {
	var total int64
	for _, tx := range txs {
		switch tx.Type {
		case models.TransactionCredit:
			total += tx.Amount
		case models.TransactionDebit:
			total -= tx.Amount
		}
	}
	return total
}
