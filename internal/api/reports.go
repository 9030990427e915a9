package api

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mentha-app/mentha/internal/domain"
	"github.com/mentha-app/mentha/internal/storage"
)

// assemblePrimaryCategories folds a flat category list into the
// two-level hierarchy: primaries in input order, each carrying its
// subcategories in input order.
func assemblePrimaryCategories(raw []domain.Category) []domain.PrimaryCategory {
	var primaries []domain.Category
	subcategories := make(map[uuid.UUID][]domain.Subcategory)

	for _, cat := range raw {
		if cat.ParentCategory != nil {
			parent := *cat.ParentCategory
			subcategories[parent] = append(subcategories[parent], domain.Subcategory{
				ID:             cat.ID,
				Name:           cat.Name,
				ParentCategory: parent,
				Owner:          cat.Owner,
			})
			continue
		}
		primaries = append(primaries, cat)
	}

	result := make([]domain.PrimaryCategory, 0, len(primaries))
	for _, cat := range primaries {
		subs := subcategories[cat.ID]
		if subs == nil {
			subs = []domain.Subcategory{}
		}
		result = append(result, domain.PrimaryCategory{
			ID:            cat.ID,
			Name:          cat.Name,
			Owner:         cat.Owner,
			Subcategories: subs,
		})
	}
	return result
}

// summarizeByCategory sums signed transaction amounts per category.
func summarizeByCategory(txns []domain.Transaction) map[uuid.UUID]float64 {
	sums := make(map[uuid.UUID]float64)
	for _, txn := range txns {
		sums[txn.Category] += txn.Amt
	}
	return sums
}

// summarizeNetIncomeByMonth groups signed amounts by calendar month.
func summarizeNetIncomeByMonth(txns []domain.Transaction) []domain.NetIncomeByMonth {
	byMonth := make(map[time.Time]*domain.NetIncomeByMonth)
	for _, txn := range txns {
		month := domain.MonthStart(txn.Date)
		summary, ok := byMonth[month]
		if !ok {
			summary = &domain.NetIncomeByMonth{Date: month}
			byMonth[month] = summary
		}
		if txn.Amt < 0 {
			summary.Expense += -txn.Amt
		} else {
			summary.Income += txn.Amt
		}
	}

	result := make([]domain.NetIncomeByMonth, 0, len(byMonth))
	for _, summary := range byMonth {
		summary.Net = round2(summary.Income - summary.Expense)
		summary.Income = round2(summary.Income)
		summary.Expense = round2(summary.Expense)
		result = append(result, *summary)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result
}

// summarizeCategorySpendByMonth sums one category's amounts per month,
// reporting a zero entry for months with no activity so charts get a
// continuous series.
func summarizeCategorySpendByMonth(txns []domain.Transaction, cat domain.Category, start, end time.Time) []domain.CategorySpendingByMonth {
	byMonth := make(map[time.Time]float64)
	for _, txn := range txns {
		byMonth[domain.MonthStart(txn.Date)] += txn.Amt
	}

	var result []domain.CategorySpendingByMonth
	for _, month := range monthList(start, end) {
		result = append(result, domain.CategorySpendingByMonth{
			Date:     month,
			Category: cat,
			Amt:      round2(math.Abs(byMonth[month])),
		})
	}
	return result
}

// monthRange returns the first and last day of a month.
func monthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

// monthList returns the first of every month from start's month through
// end's month.
func monthList(start, end time.Time) []time.Time {
	var months []time.Time
	for m := domain.MonthStart(start); !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}

// trendWindow applies the default reporting window: the last twelve
// months through the end of the current month.
func trendWindow(start, end *time.Time, now time.Time) (time.Time, time.Time) {
	var hi time.Time
	if end != nil {
		hi = *end
	} else {
		hi = domain.MonthStart(now).AddDate(0, 1, -1)
	}
	var lo time.Time
	if start != nil {
		lo = *start
	} else {
		lo = domain.MonthStart(hi).AddDate(0, -11, 0)
	}
	return lo, hi
}

// allocatedBudgets builds the per-month budget report: every budget of
// the owner against the month's summarized transactions, plus the
// synthetic Unallocated bucket holding spending no budget covers.
func allocatedBudgets(ctx context.Context, store *storage.Store, owner uuid.UUID, year int, month time.Month) ([]domain.AllocatedBudget, error) {
	start, end := monthRange(year, month)

	var budgets []domain.Budget
	err := storage.PageThrough(ctx, store.Budgets, storage.QueryOpts{
		PageSize: defaultPageSize,
		Filters:  []storage.Op{storage.Eq("owner", owner)},
	}, func(page []domain.Budget) error {
		budgets = append(budgets, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	categoryIDs := make([]any, 0, len(budgets))
	for _, bgt := range budgets {
		categoryIDs = append(categoryIDs, bgt.Category)
	}
	categories, err := categoriesByID(ctx, store, categoryIDs)
	if err != nil {
		return nil, err
	}

	var txns []domain.Transaction
	err = storage.PageThrough(ctx, store.Transactions, storage.QueryOpts{
		PageSize: defaultPageSize,
		Filters: []storage.Op{
			storage.Eq("owner", owner),
			storage.Between("date", start, end),
		},
	}, func(page []domain.Transaction) error {
		txns = append(txns, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sums := summarizeByCategory(txns)

	results := make([]domain.AllocatedBudget, 0, len(budgets)+1)
	for _, bgt := range budgets {
		cat, ok := categories[bgt.Category]
		if !ok {
			return nil, &domain.NotFoundError{ID: bgt.Category}
		}
		results = append(results, allocateBudget(bgt, cat, sums[bgt.Category], start))
		delete(sums, bgt.Category)
	}

	// Whatever spending remains belongs to no budget and reports under
	// the Unallocated bucket.
	var remainder float64
	for _, amt := range sums {
		remainder += amt
	}
	results = append(results, domain.AllocatedBudget{
		ID:           domain.UnallocatedBudget,
		Category:     domain.UnallocatedCategory,
		AllocatedAmt: round2(math.Abs(remainder)),
		Period:       1,
		CreateDate:   start,
		Owner:        owner,
	})
	return results, nil
}

func allocateBudget(bgt domain.Budget, cat domain.Category, allocated float64, month time.Time) domain.AllocatedBudget {
	monthAmt, accumulated := domain.AccumulatedBudget(bgt.Amt, bgt.Period, bgt.CreateDate, month)
	return domain.AllocatedBudget{
		ID:             bgt.ID,
		Category:       cat,
		Amt:            bgt.Amt,
		MonthAmt:       round2(monthAmt),
		AccumulatedAmt: round2(accumulated),
		AllocatedAmt:   math.Round(math.Abs(allocated)),
		Period:         bgt.Period,
		CreateDate:     bgt.CreateDate,
		InactiveDate:   bgt.InactiveDate,
		Owner:          bgt.Owner,
	}
}

// categoriesByID resolves categories by id, with the system categories
// always available.
func categoriesByID(ctx context.Context, store *storage.Store, ids []any) (map[uuid.UUID]domain.Category, error) {
	categories := make(map[uuid.UUID]domain.Category)
	for _, cat := range domain.SystemCategories {
		categories[cat.ID] = cat
	}
	if len(ids) > 0 {
		result, err := store.Categories.Query(ctx, storage.QueryOpts{
			Filters: []storage.Op{storage.In("id", ids...)},
		})
		if err != nil {
			return nil, err
		}
		for _, cat := range result.Results {
			categories[cat.ID] = cat
		}
	}
	return categories, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
