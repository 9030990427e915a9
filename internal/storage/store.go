package storage

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mentha-app/mentha/internal/domain"
)

// Store bundles the typed tables for every entity behind one handle.
type Store struct {
	db *sql.DB

	Users        *Table[domain.User]
	Categories   *Table[domain.Category]
	Institutions *Table[domain.Institution]
	Accounts     *Table[domain.Account]
	Transactions *Table[domain.Transaction]
	Rules        *Table[domain.Rule]
	Budgets      *Table[domain.Budget]
}

// NewStore wires the typed tables over an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		Users:        usersTable(db),
		Categories:   categoriesTable(db),
		Institutions: institutionsTable(db),
		Accounts:     accountsTable(db),
		Transactions: transactionsTable(db),
		Rules:        rulesTable(db),
		Budgets:      budgetsTable(db),
	}
}

// DB exposes the underlying handle for queries the typed tables cannot
// express.
func (s *Store) DB() *sql.DB { return s.db }

func usersTable(db *sql.DB) *Table[domain.User] {
	return NewTable(db, "users",
		[]string{"id", "name"},
		func(u domain.User) uuid.UUID { return u.ID },
		func(u domain.User) []any {
			return []any{u.ID.String(), u.Name}
		},
		func(s scanner) (domain.User, error) {
			var u domain.User
			err := s.Scan(&u.ID, &u.Name)
			return u, err
		},
	)
}

func categoriesTable(db *sql.DB) *Table[domain.Category] {
	return NewTable(db, "categories",
		[]string{"id", "name", "parent_category", "owner"},
		func(c domain.Category) uuid.UUID { return c.ID },
		func(c domain.Category) []any {
			return []any{c.ID.String(), c.Name, nullableID(c.ParentCategory), c.Owner.String()}
		},
		func(s scanner) (domain.Category, error) {
			var (
				c      domain.Category
				parent uuid.NullUUID
			)
			if err := s.Scan(&c.ID, &c.Name, &parent, &c.Owner); err != nil {
				return c, err
			}
			if parent.Valid {
				c.ParentCategory = &parent.UUID
			}
			return c, nil
		},
	)
}

func institutionsTable(db *sql.DB) *Table[domain.Institution] {
	return NewTable(db, "institutions",
		[]string{"id", "name", "fit_id", "trans_fit_id_pat"},
		func(i domain.Institution) uuid.UUID { return i.ID },
		func(i domain.Institution) []any {
			return []any{i.ID.String(), i.Name, i.FitID, nullableStr(i.TransFitIDPat)}
		},
		func(s scanner) (domain.Institution, error) {
			var (
				i   domain.Institution
				pat sql.NullString
			)
			if err := s.Scan(&i.ID, &i.Name, &i.FitID, &pat); err != nil {
				return i, err
			}
			if pat.Valid {
				i.TransFitIDPat = &pat.String
			}
			return i, nil
		},
	)
}

func accountsTable(db *sql.DB) *Table[domain.Account] {
	return NewTable(db, "accounts",
		[]string{"id", "fit_id", "account_type", "name", "institution", "owner"},
		func(a domain.Account) uuid.UUID { return a.ID },
		func(a domain.Account) []any {
			return []any{
				a.ID.String(), a.FitID, string(a.AccountType), a.Name,
				a.Institution.String(), a.Owner.String(),
			}
		},
		func(s scanner) (domain.Account, error) {
			var (
				a    domain.Account
				kind string
			)
			if err := s.Scan(&a.ID, &a.FitID, &kind, &a.Name, &a.Institution, &a.Owner); err != nil {
				return a, err
			}
			a.AccountType = domain.AccountType(kind)
			return a, nil
		},
	)
}

func transactionsTable(db *sql.DB) *Table[domain.Transaction] {
	return NewTable(db, "transactions",
		[]string{"id", "fit_id", "amt", "type", "date", "name", "category", "account", "owner"},
		func(t domain.Transaction) uuid.UUID { return t.ID },
		func(t domain.Transaction) []any {
			return []any{
				t.ID.String(), t.FitID, t.Amt, string(t.Type), t.Date, t.Name,
				t.Category.String(), t.Account.String(), t.Owner.String(),
			}
		},
		func(s scanner) (domain.Transaction, error) {
			var (
				t       domain.Transaction
				txnType string
			)
			err := s.Scan(
				&t.ID, &t.FitID, &t.Amt, &txnType, &t.Date, &t.Name,
				&t.Category, &t.Account, &t.Owner,
			)
			if err != nil {
				return t, err
			}
			t.Type = domain.TransactionType(txnType)
			t.Date = t.Date.UTC()
			return t, nil
		},
	)
}

func rulesTable(db *sql.DB) *Table[domain.Rule] {
	return NewTable(db, "rules",
		[]string{"id", "priority", "result_category", "owner", "match_name", "match_amt", "match_type"},
		func(r domain.Rule) uuid.UUID { return r.ID },
		func(r domain.Rule) []any {
			var matchType *string
			if r.MatchType != nil {
				s := string(*r.MatchType)
				matchType = &s
			}
			return []any{
				r.ID.String(), r.Priority, r.ResultCategory.String(), r.Owner.String(),
				nullableStr(r.MatchName), nullableStr(r.MatchAmt), nullableStr(matchType),
			}
		},
		func(s scanner) (domain.Rule, error) {
			var (
				r                             domain.Rule
				matchName, matchAmt, matchTyp sql.NullString
			)
			err := s.Scan(
				&r.ID, &r.Priority, &r.ResultCategory, &r.Owner,
				&matchName, &matchAmt, &matchTyp,
			)
			if err != nil {
				return r, err
			}
			if matchName.Valid {
				r.MatchName = &matchName.String
			}
			if matchAmt.Valid {
				r.MatchAmt = &matchAmt.String
			}
			if matchTyp.Valid {
				t := domain.TransactionType(matchTyp.String)
				r.MatchType = &t
			}
			return r, nil
		},
	)
}

func budgetsTable(db *sql.DB) *Table[domain.Budget] {
	return NewTable(db, "budgets",
		[]string{"id", "category", "amt", "period", "create_date", "inactive_date", "owner"},
		func(b domain.Budget) uuid.UUID { return b.ID },
		func(b domain.Budget) []any {
			var inactive any
			if b.InactiveDate != nil {
				inactive = *b.InactiveDate
			}
			return []any{
				b.ID.String(), b.Category.String(), b.Amt, b.Period,
				b.CreateDate, inactive, b.Owner.String(),
			}
		},
		func(s scanner) (domain.Budget, error) {
			var (
				b        domain.Budget
				inactive sql.NullTime
			)
			err := s.Scan(
				&b.ID, &b.Category, &b.Amt, &b.Period,
				&b.CreateDate, &inactive, &b.Owner,
			)
			if err != nil {
				return b, err
			}
			b.CreateDate = b.CreateDate.UTC()
			if inactive.Valid {
				t := inactive.Time.UTC()
				b.InactiveDate = &t
			}
			return b, nil
		},
	)
}

func nullableID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func nullableStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// SeedDefaults inserts the system users and categories when they are
// missing. It runs at startup after migrations.
func SeedDefaults(ctx context.Context, store *Store) error {
	for _, u := range []domain.User{domain.SystemUser, domain.ImportUser} {
		if _, ok, err := store.Users.Get(ctx, u.ID); err != nil {
			return err
		} else if !ok {
			if err := store.Users.Insert(ctx, u); err != nil {
				return err
			}
		}
	}
	for _, c := range domain.SystemCategories {
		if _, ok, err := store.Categories.Get(ctx, c.ID); err != nil {
			return err
		} else if !ok {
			if err := store.Categories.Insert(ctx, c); err != nil {
				return err
			}
		}
	}
	return nil
}
