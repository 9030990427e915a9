package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mentha-app/mentha/internal/domain"
	"github.com/mentha-app/mentha/internal/importer"
	"github.com/mentha-app/mentha/internal/jobs"
	"github.com/mentha-app/mentha/internal/storage"
)

// accountsByOwner returns the owner's accounts with their institutions
// inlined.
func (s *Server) accountsByOwner(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathID(w, r, "ownerId")
	if !ok {
		return
	}
	accts, err := s.store.Accounts.Query(r.Context(), storage.QueryOpts{
		Filters: []storage.Op{storage.Eq("owner", owner)},
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	instIDs := make([]any, 0, len(accts.Results))
	for _, acct := range accts.Results {
		instIDs = append(instIDs, acct.Institution)
	}
	institutions := make(map[uuid.UUID]domain.Institution)
	if len(instIDs) > 0 {
		result, err := s.store.Institutions.Query(r.Context(), storage.QueryOpts{
			Filters: []storage.Op{storage.In("id", instIDs...)},
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		for _, inst := range result.Results {
			institutions[inst.ID] = inst
		}
	}

	expanded := make([]domain.ExpandedAccount, 0, len(accts.Results))
	for _, acct := range accts.Results {
		expanded = append(expanded, acct.Expand(institutions[acct.Institution]))
	}
	WriteJSON(w, http.StatusOK, expanded)
}

// categoriesByOwner returns the two-level category hierarchy visible to
// the owner: their own categories plus the system ones.
func (s *Server) categoriesByOwner(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathID(w, r, "ownerId")
	if !ok {
		return
	}
	result, err := s.store.Categories.Query(r.Context(), storage.QueryOpts{
		Filters: []storage.Op{storage.In("owner", owner, domain.SystemUser.ID)},
		Sorts:   []storage.Sort{{Field: "name"}},
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, assemblePrimaryCategories(result.Results))
}

// rulesByOwner returns the owner's rules with result categories inlined.
func (s *Server) rulesByOwner(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathID(w, r, "ownerId")
	if !ok {
		return
	}
	opts, err := parseQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts.Filters = append(opts.Filters, storage.Eq("owner", owner))
	if len(opts.Sorts) == 0 {
		opts.Sorts = []storage.Sort{{Field: "priority"}}
	}

	raw, err := s.store.Rules.Query(r.Context(), opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	catIDs := make([]any, 0, len(raw.Results))
	for _, rule := range raw.Results {
		catIDs = append(catIDs, rule.ResultCategory)
	}
	categories, err := categoriesByID(r.Context(), s.store, catIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	expanded := make([]domain.ExpandedRule, 0, len(raw.Results))
	for _, rule := range raw.Results {
		cat, ok := categories[rule.ResultCategory]
		if !ok {
			writeDomainError(w, &domain.NotFoundError{ID: rule.ResultCategory})
			return
		}
		expanded = append(expanded, rule.Expand(cat))
	}
	WriteJSON(w, http.StatusOK, broadcast(raw, expanded))
}

// transactionsByOwner returns a page of the owner's transactions with
// categories inlined.
func (s *Server) transactionsByOwner(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathID(w, r, "ownerId")
	if !ok {
		return
	}
	opts, err := parseQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts.Filters = append(opts.Filters, storage.Eq("owner", owner))
	if len(opts.Sorts) == 0 {
		opts.Sorts = []storage.Sort{{Field: "date", Desc: true}}
	}

	raw, err := s.store.Transactions.Query(r.Context(), opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	catIDs := make([]any, 0, len(raw.Results))
	for _, txn := range raw.Results {
		catIDs = append(catIDs, txn.Category)
	}
	categories, err := categoriesByID(r.Context(), s.store, catIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	expanded := make([]domain.ExpandedTransaction, 0, len(raw.Results))
	for _, txn := range raw.Results {
		cat, ok := categories[txn.Category]
		if !ok {
			writeDomainError(w, &domain.NotFoundError{ID: txn.Category})
			return
		}
		expanded = append(expanded, txn.Expand(cat))
	}
	WriteJSON(w, http.StatusOK, broadcast(raw, expanded))
}

// importTransactions runs the statement inbox for the owner and reports
// counts.
func (s *Server) importTransactions(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathID(w, r, "ownerId")
	if !ok {
		return
	}
	imp, err := importer.New(s.store, owner, s.inbox, s.complete, s.log)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := imp.RefreshRules(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := imp.Execute(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// applyRules schedules a bulk rule pass and returns immediately.
func (s *Server) applyRules(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathID(w, r, "ownerId")
	if !ok {
		return
	}
	uncategorizedOnly := r.URL.Query().Get("uncategorizedOnly") == "true"
	job, err := s.queue.Enqueue(r.Context(), jobs.ApplyRulesJob{
		Owner:             owner,
		UncategorizedOnly: uncategorizedOnly,
	})
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	WriteJSON(w, http.StatusAccepted, job)
}

// allocatedBudgetsByMonth reports every budget of the owner against one
// month's spending, closing with the synthetic Unallocated bucket.
func (s *Server) allocatedBudgetsByMonth(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathID(w, r, "ownerId")
	if !ok {
		return
	}
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || month < 1 || month > 12 {
		WriteError(w, http.StatusBadRequest, "invalid month")
		return
	}

	results, err := allocatedBudgets(r.Context(), s.store, owner, year, time.Month(month))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, results)
}

// netIncomeTrend reports monthly income, expense and net over a window.
func (s *Server) netIncomeTrend(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathID(w, r, "ownerId")
	if !ok {
		return
	}
	start, end, err := windowParams(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	txns, err := s.transactionsInWindow(r, owner, start, end, nil)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, summarizeNetIncomeByMonth(txns))
}

// categorySpendTrend reports one category's monthly spending over a
// window, including zero months.
func (s *Server) categorySpendTrend(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathID(w, r, "ownerId")
	if !ok {
		return
	}
	catID, err := uuid.Parse(r.URL.Query().Get("category"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid category")
		return
	}
	start, end, err := windowParams(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	categories, err := categoriesByID(r.Context(), s.store, []any{catID})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	cat, ok := categories[catID]
	if !ok {
		writeDomainError(w, &domain.NotFoundError{ID: catID})
		return
	}

	txns, err := s.transactionsInWindow(r, owner, start, end, &catID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, summarizeCategorySpendByMonth(txns, cat, start, end))
}

func (s *Server) transactionsInWindow(r *http.Request, owner uuid.UUID, start, end time.Time, category *uuid.UUID) ([]domain.Transaction, error) {
	filters := []storage.Op{
		storage.Eq("owner", owner),
		storage.Between("date", start, end),
	}
	if category != nil {
		filters = append(filters, storage.Eq("category", *category))
	}
	var txns []domain.Transaction
	err := storage.PageThrough(r.Context(), s.store.Transactions, storage.QueryOpts{
		PageSize: defaultPageSize,
		Filters:  filters,
	}, func(page []domain.Transaction) error {
		txns = append(txns, page...)
		return nil
	})
	return txns, err
}

// windowParams reads the optional startDt/endDt query params and fills
// in the default reporting window.
func windowParams(r *http.Request) (time.Time, time.Time, error) {
	var start, end *time.Time
	if raw := r.URL.Query().Get("startDt"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = &d
	}
	if raw := r.URL.Query().Get("endDt"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = &d
	}
	lo, hi := trendWindow(start, end, time.Now().UTC())
	return lo, hi, nil
}

// broadcast rewraps page metadata around transformed results.
func broadcast[T, U any](page storage.PagedResults[T], results []U) storage.PagedResults[U] {
	return storage.PagedResults[U]{
		Results:       results,
		HitCount:      page.HitCount,
		TotalHitCount: page.TotalHitCount,
		Page:          page.Page,
		PageSize:      page.PageSize,
		HasNext:       page.HasNext,
		HasPrev:       page.HasPrev,
	}
}
