// Package api mounts the HTTP surface: CRUD per entity, by-owner
// expanded reads, the import trigger, the bulk rule pass, and the
// budget and trend reports.
package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mentha-app/mentha/internal/domain"
	"github.com/mentha-app/mentha/internal/jobs"
	"github.com/mentha-app/mentha/internal/rules"
	"github.com/mentha-app/mentha/internal/storage"
)

// Server holds the dependencies of every handler.
type Server struct {
	store    *storage.Store
	queue    *jobs.Queue
	inbox    string
	complete string
	log      zerolog.Logger
}

// NewServer wires the handlers' dependencies.
func NewServer(store *storage.Store, queue *jobs.Queue, inbox, complete string, log zerolog.Logger) *Server {
	return &Server{
		store:    store,
		queue:    queue,
		inbox:    inbox,
		complete: complete,
		log:      log.With().Str("component", "api").Logger(),
	}
}

// Handler builds the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	registerCRUD(mux, crudConfig[domain.User, domain.UserInput]{
		prefix: "users",
		table:  s.store.Users,
		decode: domain.DecodeUserInput,
	})
	registerCRUD(mux, crudConfig[domain.Category, domain.CategoryInput]{
		prefix: "categories",
		table:  s.store.Categories,
		decode: domain.DecodeCategoryInput,
	})
	registerCRUD(mux, crudConfig[domain.Institution, domain.InstitutionInput]{
		prefix: "institutions",
		table:  s.store.Institutions,
		decode: domain.DecodeInstitutionInput,
	})
	registerCRUD(mux, crudConfig[domain.Account, domain.AccountInput]{
		prefix: "accounts",
		table:  s.store.Accounts,
		decode: domain.DecodeAccountInput,
	})
	registerCRUD(mux, crudConfig[domain.Transaction, domain.TransactionInput]{
		prefix: "transactions",
		table:  s.store.Transactions,
		decode: domain.DecodeTransactionInput,
	})
	registerCRUD(mux, crudConfig[domain.Rule, domain.RuleInput]{
		prefix:   "rules",
		table:    s.store.Rules,
		decode:   domain.DecodeRuleInput,
		validate: rules.ValidateRule,
	})
	registerCRUD(mux, crudConfig[domain.Budget, domain.BudgetInput]{
		prefix: "budgets",
		table:  s.store.Budgets,
		decode: domain.DecodeBudgetInput,
	})

	mux.HandleFunc("GET /accounts/by-owner/{ownerId}", s.accountsByOwner)
	mux.HandleFunc("GET /categories/by-owner/{ownerId}", s.categoriesByOwner)
	mux.HandleFunc("GET /rules/by-owner/{ownerId}", s.rulesByOwner)
	mux.HandleFunc("GET /transactions/by-owner/{ownerId}", s.transactionsByOwner)
	mux.HandleFunc("POST /transactions/import/{ownerId}", s.importTransactions)
	mux.HandleFunc("POST /transactions/apply-rules/{ownerId}", s.applyRules)
	mux.HandleFunc("GET /budgets/by-owner/{ownerId}/{year}/{month}", s.allocatedBudgetsByMonth)
	mux.HandleFunc("GET /trends/net-income/{ownerId}", s.netIncomeTrend)
	mux.HandleFunc("GET /trends/category-spend/{ownerId}", s.categorySpendTrend)

	return Chain(mux, Recovery(s.log), Logger(s.log), CORS)
}
