package domain

import "github.com/google/uuid"

// User identifies an owner of accounts, transactions, rules and budgets.
// There is no authentication; the id is simply carried on owned records.
type User struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// UserInput is the write shape for users.
type UserInput struct {
	Name string `json:"name"`
}

// DecodeUserInput converts a UserInput into a User under id.
func DecodeUserInput(id uuid.UUID, in UserInput) User {
	return User{ID: id, Name: in.Name}
}

// SystemUser owns system-wide records such as the well-known categories.
var SystemUser = User{
	ID:   uuid.MustParse("9b4923d8-53aa-4f40-b602-9e4765420c07"),
	Name: "System",
}

// ImportUser owns statement-import activity with no interactive owner
// of its own.
var ImportUser = User{
	ID:   uuid.MustParse("4b779c07-cc09-4ee9-8393-fd36af0b00df"),
	Name: "Import",
}
