package models

// TransactionType distinguishes money entering the account from money
// leaving it.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Transaction is a single account movement. Amount is in cents. CreatedAt
// and UpdatedAt are epoch milliseconds; UpdatedAt is zero until the record
// is first updated.
type Transaction struct {
	ID          string
	OwnerID     string
	Type        TransactionType
	Amount      int64
	Description string
	Category    string
	CreatedAt   int64
	UpdatedAt   int64
}
