// Package importer turns statement files dropped in an inbox directory
// into persisted transactions. Each file resolves to an institution and
// account, gets deduplicated against what is already stored, and has
// the owner's categorization rules applied before insert.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mentha-app/mentha/internal/domain"
	"github.com/mentha-app/mentha/internal/ofx"
	"github.com/mentha-app/mentha/internal/rules"
	"github.com/mentha-app/mentha/internal/storage"
)

// Error reports an import run that could not proceed, such as a
// statement from an institution nobody has registered.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// Result tallies one import run.
type Result struct {
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
}

// Importer drives import runs for one owner.
type Importer struct {
	store    *storage.Store
	owner    uuid.UUID
	inbox    string
	complete string
	rules    []domain.Rule
	log      zerolog.Logger
}

// New builds an Importer, creating the inbox and complete directories
// when they do not exist yet.
func New(store *storage.Store, owner uuid.UUID, inbox, complete string, log zerolog.Logger) (*Importer, error) {
	for _, dir := range []string{inbox, complete} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &Importer{
		store:    store,
		owner:    owner,
		inbox:    inbox,
		complete: complete,
		log:      log.With().Str("component", "importer").Stringer("owner", owner).Logger(),
	}, nil
}

// RefreshRules reloads the owner's rules sorted by priority. Call it
// before Execute so rule changes land on the next run.
func (imp *Importer) RefreshRules(ctx context.Context) error {
	result, err := imp.store.Rules.Query(ctx, storage.QueryOpts{
		Filters: []storage.Op{storage.Eq("owner", imp.owner)},
	})
	if err != nil {
		return err
	}
	rules := result.Results
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })
	imp.rules = rules
	return nil
}

// Execute imports every file in the inbox. Files move to the complete
// directory only after their transactions persist, so a failed run
// leaves them in place for retry; the fit-id dedup makes the retry
// idempotent. Duplicate transactions are counted, not errors.
func (imp *Importer) Execute(ctx context.Context) (Result, error) {
	entries, err := os.ReadDir(imp.inbox)
	if err != nil {
		return Result{}, err
	}

	var result Result
	existingFitIDs := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(imp.inbox, entry.Name())
		imported, duplicates, err := imp.importFile(ctx, path, existingFitIDs)
		if err != nil {
			return result, err
		}
		result.Imported += imported
		result.Duplicates += duplicates

		if err := os.Rename(path, filepath.Join(imp.complete, entry.Name())); err != nil {
			return result, err
		}
		imp.log.Info().
			Str("file", entry.Name()).
			Int("imported", imported).
			Int("duplicates", duplicates).
			Msg("statement imported")
	}
	return result, nil
}

func (imp *Importer) importFile(ctx context.Context, path string, existingFitIDs map[string]struct{}) (imported, duplicates int, err error) {
	file, err := ofx.ParseFile(path)
	if err != nil {
		return 0, 0, err
	}

	// Institutions are matched first: account ids are only unique within
	// one institution, never globally.
	inst, err := imp.resolveInstitution(ctx, file.BankID)
	if err != nil {
		return 0, 0, err
	}
	acct, err := imp.resolveAccount(ctx, file, inst)
	if err != nil {
		return 0, 0, err
	}

	candidates, err := imp.decodeRecords(file, inst, acct)
	if err != nil {
		return 0, 0, err
	}
	if len(candidates) == 0 {
		return 0, 0, nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Date.Before(candidates[j].Date)
	})

	stored, err := imp.store.Transactions.Query(ctx, storage.QueryOpts{
		Filters: []storage.Op{
			storage.Eq("owner", imp.owner),
			storage.Eq("account", acct.ID),
			storage.Between("date", candidates[0].Date, candidates[len(candidates)-1].Date),
		},
	})
	if err != nil {
		return 0, 0, err
	}
	for _, txn := range stored.Results {
		existingFitIDs[txn.FitID] = struct{}{}
	}

	var eligible []domain.Transaction
	for _, txn := range candidates {
		if _, ok := existingFitIDs[txn.FitID]; ok {
			duplicates++
			continue
		}
		existingFitIDs[txn.FitID] = struct{}{}
		eligible = append(eligible, txn)
	}

	for i, txn := range eligible {
		category, ok, err := rules.Apply(imp.rules, txn)
		if err != nil {
			return 0, 0, err
		}
		if ok {
			eligible[i].Category = category
		}
	}

	if err := imp.store.Transactions.Insert(ctx, eligible...); err != nil {
		return 0, 0, err
	}
	return len(eligible), duplicates, nil
}

func (imp *Importer) resolveInstitution(ctx context.Context, bankID string) (domain.Institution, error) {
	result, err := imp.store.Institutions.Query(ctx, storage.QueryOpts{
		Filters: []storage.Op{storage.Eq("fitId", bankID)},
	})
	if err != nil {
		return domain.Institution{}, err
	}
	if len(result.Results) == 0 {
		// Statements from unregistered institutions are never imported.
		return domain.Institution{}, &Error{
			Msg: fmt.Sprintf("unable to locate institution for fit_id %s", bankID),
		}
	}
	return result.Results[0], nil
}

func (imp *Importer) resolveAccount(ctx context.Context, file ofx.File, inst domain.Institution) (domain.Account, error) {
	result, err := imp.store.Accounts.Query(ctx, storage.QueryOpts{
		Filters: []storage.Op{
			storage.Eq("fitId", file.AcctID),
			storage.Eq("institution", inst.ID),
		},
	})
	if err != nil {
		return domain.Account{}, err
	}
	if len(result.Results) > 0 {
		return result.Results[0], nil
	}

	acct := accountForStatement(file, inst.ID, imp.owner)
	if file.AcctType != "SAVINGS" && file.AcctType != "CHECKING" {
		imp.log.Warn().
			Str("acctType", file.AcctType).
			Str("acctId", file.AcctID).
			Msg("unrecognized account type, defaulting to Checking")
	}
	if err := imp.store.Accounts.Insert(ctx, acct); err != nil {
		return domain.Account{}, err
	}
	imp.log.Info().Str("acctId", acct.FitID).Str("name", acct.Name).Msg("account created")
	return acct, nil
}

func (imp *Importer) decodeRecords(file ofx.File, inst domain.Institution, acct domain.Account) ([]domain.Transaction, error) {
	txns := make([]domain.Transaction, 0, len(file.Transactions))
	for _, rec := range file.Transactions {
		fitID, err := NormalizeFitID(rec.FitID, inst.TransFitIDPat)
		if err != nil {
			return nil, err
		}
		txns = append(txns, domain.Transaction{
			ID:       uuid.New(),
			FitID:    fitID,
			Amt:      rec.TrnAmt,
			Type:     domain.TypeForAmount(rec.TrnAmt),
			Date:     rec.DtPosted,
			Name:     rec.Name,
			Category: domain.Uncategorized.ID,
			Account:  acct.ID,
			Owner:    imp.owner,
		})
	}
	return txns, nil
}

func accountForStatement(file ofx.File, inst, owner uuid.UUID) domain.Account {
	kind := domain.AccountChecking
	if file.AcctType == "SAVINGS" {
		kind = domain.AccountSavings
	}
	return domain.Account{
		ID:          uuid.New(),
		FitID:       file.AcctID,
		AccountType: kind,
		Name:        file.AcctType,
		Institution: inst,
		Owner:       owner,
	}
}
