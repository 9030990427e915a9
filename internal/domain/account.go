package domain

import "github.com/google/uuid"

// AccountType classifies an account.
type AccountType string

const (
	AccountChecking AccountType = "Checking"
	AccountSavings  AccountType = "Savings"
)

// Account is a bank account at an institution. FitID is the external
// account id from statements; it is only unique within the owning
// institution, so two institutions may reuse the same fit-id freely.
type Account struct {
	ID          uuid.UUID   `json:"id"`
	FitID       string      `json:"fitId"`
	AccountType AccountType `json:"accountType"`
	Name        string      `json:"name"`
	Institution uuid.UUID   `json:"institution"`
	Owner       uuid.UUID   `json:"owner"`
}

// ExpandedAccount is an Account with its institution inlined.
type ExpandedAccount struct {
	ID          uuid.UUID   `json:"id"`
	FitID       string      `json:"fitId"`
	AccountType AccountType `json:"accountType"`
	Name        string      `json:"name"`
	Institution Institution `json:"institution"`
	Owner       uuid.UUID   `json:"owner"`
}

// AccountInput is the write shape for accounts.
type AccountInput struct {
	FitID       string      `json:"fitId"`
	AccountType AccountType `json:"accountType"`
	Name        string      `json:"name"`
	Institution uuid.UUID   `json:"institution"`
	Owner       uuid.UUID   `json:"owner"`
}

// DecodeAccountInput converts an AccountInput into an Account under id.
func DecodeAccountInput(id uuid.UUID, in AccountInput) Account {
	return Account{
		ID:          id,
		FitID:       in.FitID,
		AccountType: in.AccountType,
		Name:        in.Name,
		Institution: in.Institution,
		Owner:       in.Owner,
	}
}

// Expand attaches the institution record to the account.
func (a Account) Expand(inst Institution) ExpandedAccount {
	return ExpandedAccount{
		ID:          a.ID,
		FitID:       a.FitID,
		AccountType: a.AccountType,
		Name:        a.Name,
		Institution: inst,
		Owner:       a.Owner,
	}
}
