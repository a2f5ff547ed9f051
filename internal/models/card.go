package models

// CardKind distinguishes the card function.
type CardKind string

const (
	CardCredit CardKind = "credit"
	CardDebit  CardKind = "debit"
)

// Card is a digital card issued to a user. Only the last four digits of the
// number are ever stored client-side.
type Card struct {
	ID        string
	OwnerID   string
	Alias     string
	Last4     string
	Brand     string
	Kind      CardKind
	Blocked   bool
	CreatedAt int64
	UpdatedAt int64
}
