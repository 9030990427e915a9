package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentha-app/mentha/internal/domain"
	"github.com/mentha-app/mentha/internal/ofx"
	"github.com/mentha-app/mentha/internal/storage"
)

type fixture struct {
	store    *storage.Store
	owner    uuid.UUID
	inbox    string
	complete string
	imp      *Importer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.RunMigrations(db))
	store := storage.NewStore(db)
	require.NoError(t, storage.SeedDefaults(context.Background(), store))

	owner := domain.User{ID: uuid.New(), Name: "Importer Test"}
	require.NoError(t, store.Users.Insert(context.Background(), owner))

	inbox := filepath.Join(dir, "inbox")
	complete := filepath.Join(dir, "complete")
	imp, err := New(store, owner.ID, inbox, complete, zerolog.Nop())
	require.NoError(t, err)
	return &fixture{store: store, owner: owner.ID, inbox: inbox, complete: complete, imp: imp}
}

func (f *fixture) seedInstitution(t *testing.T, fitIDPat *string) domain.Institution {
	t.Helper()
	inst := domain.Institution{
		ID:            uuid.New(),
		Name:          "Test Bank",
		FitID:         "123456",
		TransFitIDPat: fitIDPat,
	}
	require.NoError(t, f.store.Institutions.Insert(context.Background(), inst))
	return inst
}

func statement() ofx.File {
	day := func(d int) time.Time { return time.Date(2023, 8, d, 0, 0, 0, 0, time.UTC) }
	return ofx.File{
		BankID:   "123456",
		AcctID:   "123_456-S0200",
		AcctType: "CHECKING",
		Transactions: []ofx.Transaction{
			{FitID: "789_1011-S0200|123456", DtPosted: day(28), TrnAmt: -1.00, TrnType: "DEBIT", Name: "Foo", Memo: "m"},
			{FitID: "789_1011-S0200|123457", DtPosted: day(28), TrnAmt: -37.36, TrnType: "DEBIT", Name: "Bar", Memo: "m"},
			{FitID: "789_1011-S0200|123458", DtPosted: day(29), TrnAmt: -3.00, TrnType: "DEBIT", Name: "Spam", Memo: "m"},
			{FitID: "789_1011-S0200|123459", DtPosted: day(30), TrnAmt: -18.33, TrnType: "PAYMENT", Name: "Eggs", Memo: "m"},
			{FitID: "789_1011-S0200|123460", DtPosted: day(31), TrnAmt: 208.58, TrnType: "DIRECTDEP", Name: "Python", Memo: "m"},
		},
	}
}

func writeStatement(t *testing.T, dir, name string, file ofx.File) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	require.NoError(t, ofx.Render(f, file))
	require.NoError(t, f.Close())
}

func TestExecuteImportsStatement(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedInstitution(t, nil)
	writeStatement(t, f.inbox, "stmt.ofx", statement())

	result, err := f.imp.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 5, Duplicates: 0}, result)

	assert.NoFileExists(t, filepath.Join(f.inbox, "stmt.ofx"))
	assert.FileExists(t, filepath.Join(f.complete, "stmt.ofx"))

	accts, err := f.store.Accounts.Query(ctx, storage.QueryOpts{
		Filters: []storage.Op{storage.Eq("owner", f.owner)},
	})
	require.NoError(t, err)
	require.Len(t, accts.Results, 1)
	assert.Equal(t, "123_456-S0200", accts.Results[0].FitID)
	assert.Equal(t, domain.AccountChecking, accts.Results[0].AccountType)

	txns, err := f.store.Transactions.Query(ctx, storage.QueryOpts{
		Filters: []storage.Op{storage.Eq("owner", f.owner)},
		Sorts:   []storage.Sort{{Field: "date"}},
	})
	require.NoError(t, err)
	require.Len(t, txns.Results, 5)
	assert.Equal(t, -1.00, txns.Results[0].Amt)
	assert.Equal(t, domain.Debit, txns.Results[0].Type)
	assert.Equal(t, 208.58, txns.Results[4].Amt)
	assert.Equal(t, domain.Credit, txns.Results[4].Type)
	for _, txn := range txns.Results {
		assert.Equal(t, domain.Uncategorized.ID, txn.Category)
	}
}

func TestExecuteIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedInstitution(t, nil)
	writeStatement(t, f.inbox, "stmt.ofx", statement())

	result, err := f.imp.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 5}, result)

	writeStatement(t, f.inbox, "stmt.ofx", statement())
	result, err = f.imp.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 0, Duplicates: 5}, result)

	count, err := f.store.Transactions.Count(ctx, storage.Eq("owner", f.owner))
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestExecuteUnknownInstitution(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	writeStatement(t, f.inbox, "stmt.ofx", statement())

	_, err := f.imp.Execute(context.Background())
	var ierr *Error
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, err.Error(), "123456")

	assert.FileExists(t, filepath.Join(f.inbox, "stmt.ofx"), "failed files stay in the inbox")
	assert.NoFileExists(t, filepath.Join(f.complete, "stmt.ofx"))
}

func TestExecuteNormalizesFitIDs(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedInstitution(t, pat(`\d{3}_\d{4}-S0200\|(\d*)`))
	writeStatement(t, f.inbox, "stmt.ofx", statement())

	_, err := f.imp.Execute(ctx)
	require.NoError(t, err)

	count, err := f.store.Transactions.Count(ctx, storage.In("fitId",
		"123456", "123457", "123458", "123459", "123460"))
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestExecuteAppliesRules(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedInstitution(t, nil)

	groceries := domain.Category{ID: uuid.New(), Name: "Groceries", Owner: f.owner}
	income := domain.Category{ID: uuid.New(), Name: "Salary", Owner: f.owner}
	require.NoError(t, f.store.Categories.Insert(ctx, groceries, income))

	matchBar := "bar"
	matchCredit := domain.Credit
	require.NoError(t, f.store.Rules.Insert(ctx,
		domain.Rule{ID: uuid.New(), Priority: 1, ResultCategory: groceries.ID, Owner: f.owner, MatchName: &matchBar},
		domain.Rule{ID: uuid.New(), Priority: 2, ResultCategory: income.ID, Owner: f.owner, MatchType: &matchCredit},
	))
	require.NoError(t, f.imp.RefreshRules(ctx))

	writeStatement(t, f.inbox, "stmt.ofx", statement())
	_, err := f.imp.Execute(ctx)
	require.NoError(t, err)

	count, err := f.store.Transactions.Count(ctx, storage.Eq("category", groceries.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, count, "Bar matches the name rule")

	count, err = f.store.Transactions.Count(ctx, storage.Eq("category", income.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, count, "the credit deposit matches the type rule")

	count, err = f.store.Transactions.Count(ctx, storage.Eq("category", domain.Uncategorized.ID))
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestExecuteEmptyInbox(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	result, err := f.imp.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, result)
}
