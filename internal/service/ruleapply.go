// Package service holds the background operations that run detached
// from a request, currently the bulk rule pass over stored
// transactions.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mentha-app/mentha/internal/domain"
	"github.com/mentha-app/mentha/internal/rules"
	"github.com/mentha-app/mentha/internal/storage"
)

const defaultPageSize = 500

// RuleApplier re-evaluates an owner's rules against their stored
// transactions.
type RuleApplier struct {
	Store    *storage.Store
	PageSize int
	Log      zerolog.Logger
}

type pendingUpdate struct {
	txn      domain.Transaction
	category uuid.UUID
}

// Run walks the owner's transactions page by page and recategorizes
// each one by its first matching rule. With uncategorizedOnly set, only
// transactions still in the system Uncategorized category are touched.
// Transactions whose rule pass hits corrupt rule data are skipped, not
// fatal. Returns the number of transactions updated.
func (a *RuleApplier) Run(ctx context.Context, owner uuid.UUID, uncategorizedOnly bool) (int, error) {
	log := a.Log.With().Str("component", "ruleapply").Stringer("owner", owner).Logger()

	ruleSet, err := a.Store.Rules.Query(ctx, storage.QueryOpts{
		Filters: []storage.Op{storage.Eq("owner", owner)},
		Sorts:   []storage.Sort{{Field: "priority"}},
	})
	if err != nil {
		return 0, err
	}
	if len(ruleSet.Results) == 0 {
		log.Info().Msg("no rules to apply")
		return 0, nil
	}

	filters := []storage.Op{storage.Eq("owner", owner)}
	if uncategorizedOnly {
		filters = append(filters, storage.Eq("category", domain.Uncategorized.ID))
	}
	pageSize := a.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	// Updates are collected during the walk and written afterwards so
	// recategorizing a transaction cannot shift the pages still being
	// walked out from under the query.
	var updates []pendingUpdate
	err = storage.PageThrough(ctx, a.Store.Transactions, storage.QueryOpts{
		PageSize: pageSize,
		Sorts:    []storage.Sort{{Field: "date"}},
		Filters:  filters,
	}, func(txns []domain.Transaction) error {
		for _, txn := range txns {
			category, ok, err := rules.Apply(ruleSet.Results, txn)
			if err != nil {
				log.Warn().Err(err).Stringer("transaction", txn.ID).Msg("rule pass skipped")
				continue
			}
			if ok && category != txn.Category {
				updates = append(updates, pendingUpdate{txn: txn, category: category})
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for i, u := range updates {
		u.txn.Category = u.category
		if err := a.Store.Transactions.Update(ctx, u.txn); err != nil {
			return i, err
		}
	}
	log.Info().Int("updated", len(updates)).Bool("uncategorizedOnly", uncategorizedOnly).Msg("rule pass complete")
	return len(updates), nil
}
