package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// TransactionType marks a transaction as money in or money out.
type TransactionType string

const (
	Credit TransactionType = "credit"
	Debit  TransactionType = "debit"
)

// Transaction is one posted bank transaction. Amt is signed: positive for
// credits, negative for debits; Type always agrees with the sign. FitID is
// the normalized external id used for import deduplication and is only
// meaningful within (owner, account).
type Transaction struct {
	ID       uuid.UUID       `json:"id"`
	FitID    string          `json:"fitId"`
	Amt      float64         `json:"amt"`
	Type     TransactionType `json:"type"`
	Date     time.Time       `json:"date"`
	Name     string          `json:"name"`
	Category uuid.UUID       `json:"category"`
	Account  uuid.UUID       `json:"account"`
	Owner    uuid.UUID       `json:"owner"`
}

// ExpandedTransaction is a Transaction with its category inlined.
type ExpandedTransaction struct {
	ID       uuid.UUID       `json:"id"`
	FitID    string          `json:"fitId"`
	Amt      float64         `json:"amt"`
	Type     TransactionType `json:"type"`
	Date     time.Time       `json:"date"`
	Name     string          `json:"name"`
	Category Category        `json:"category"`
	Account  uuid.UUID       `json:"account"`
	Owner    uuid.UUID       `json:"owner"`
}

// TransactionInput is the write shape for transactions. Amt may be given
// with either sign; the decoded sign is forced from Type.
type TransactionInput struct {
	FitID    string          `json:"fitId"`
	Amt      float64         `json:"amt"`
	Type     TransactionType `json:"type"`
	Date     time.Time       `json:"date"`
	Name     string          `json:"name"`
	Category *uuid.UUID      `json:"category,omitempty"`
	Account  uuid.UUID       `json:"account"`
	Owner    uuid.UUID       `json:"owner"`
}

// DecodeTransactionInput converts a TransactionInput into a Transaction.
// The amount's sign is derived from the declared type so the two can never
// disagree, the date is truncated to day precision, and a missing category
// defaults to Uncategorized.
func DecodeTransactionInput(id uuid.UUID, in TransactionInput) Transaction {
	amt := math.Abs(in.Amt)
	if in.Type == Debit {
		amt = -amt
	}
	category := Uncategorized.ID
	if in.Category != nil {
		category = *in.Category
	}
	return Transaction{
		ID:       id,
		FitID:    in.FitID,
		Amt:      amt,
		Type:     in.Type,
		Date:     DateOnly(in.Date),
		Name:     in.Name,
		Category: category,
		Account:  in.Account,
		Owner:    in.Owner,
	}
}

// TypeForAmount derives the credit/debit flag from a signed amount.
func TypeForAmount(amt float64) TransactionType {
	if amt < 0 {
		return Debit
	}
	return Credit
}

// Expand attaches the category record to the transaction.
func (t Transaction) Expand(cat Category) ExpandedTransaction {
	return ExpandedTransaction{
		ID:       t.ID,
		FitID:    t.FitID,
		Amt:      t.Amt,
		Type:     t.Type,
		Date:     t.Date,
		Name:     t.Name,
		Category: cat,
		Account:  t.Account,
		Owner:    t.Owner,
	}
}

// DateOnly truncates a timestamp to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
