package rules

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentha-app/mentha/internal/domain"
)

func strptr(s string) *string { return &s }

func typeptr(t domain.TransactionType) *domain.TransactionType { return &t }

func txn(name string, amt float64) domain.Transaction {
	return domain.Transaction{
		ID:   uuid.New(),
		Name: name,
		Amt:  amt,
		Type: domain.TypeForAmount(amt),
	}
}

func rule(mods ...func(*domain.Rule)) domain.Rule {
	r := domain.Rule{
		ID:             uuid.New(),
		Priority:       1,
		ResultCategory: uuid.New(),
		Owner:          uuid.New(),
	}
	for _, mod := range mods {
		mod(&r)
	}
	return r
}

func TestEvaluateNameCriterion(t *testing.T) {
	t.Parallel()

	r := rule(func(r *domain.Rule) { r.MatchName = strptr("coffee") })

	_, ok, err := Evaluate(r, txn("STARBUCKS COFFEE #1234", -4.85))
	require.NoError(t, err)
	assert.True(t, ok, "search is case-insensitive and unanchored")

	_, ok, err = Evaluate(r, txn("GROCERY MART", -20))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateAmountCriterion(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		expr  string
		amt   float64
		match bool
	}{
		{">0", 10, true},
		{">0", -10, false},
		{"<0", -10, true},
		{"<0", 10, false},
		{">=12.01", 12.01, true},
		{">=12.01", 12.00, false},
		{"<=12.01", 12.01, true},
		{"<=12.01", 12.02, false},
		{"12.05", 12.05, true},
		{"12.05", 12.06, false},
		{"=12.05", 12.05, true},
		{"-123", -123, true},
	} {
		r := rule(func(r *domain.Rule) { r.MatchAmt = strptr(tc.expr) })
		cat, ok, err := Evaluate(r, txn("ANY", tc.amt))
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.match, ok, "%s against %v", tc.expr, tc.amt)
		if tc.match {
			assert.Equal(t, r.ResultCategory, cat)
		}
	}
}

func TestEvaluateRejectsMalformedAmountExpr(t *testing.T) {
	t.Parallel()

	r := rule(func(r *domain.Rule) { r.MatchAmt = strptr("blar") })
	_, _, err := Evaluate(r, txn("ANY", 1))
	var ierr *domain.DataIntegrityError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "matchAmt", ierr.Field)
}

func TestEvaluateTypeCriterion(t *testing.T) {
	t.Parallel()

	r := rule(func(r *domain.Rule) { r.MatchType = typeptr(domain.Debit) })

	_, ok, err := Evaluate(r, txn("ANY", -5))
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = Evaluate(r, txn("ANY", 5))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateAllCriteriaMustPass(t *testing.T) {
	t.Parallel()

	r := rule(func(r *domain.Rule) {
		r.MatchName = strptr("market")
		r.MatchAmt = strptr("<0")
		r.MatchType = typeptr(domain.Debit)
	})

	_, ok, err := Evaluate(r, txn("FARMERS MARKET", -25))
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = Evaluate(r, txn("FARMERS MARKET", 25))
	require.NoError(t, err)
	assert.False(t, ok, "amount and type criteria fail")
}

func TestEvaluateNoCriteriaNeverMatches(t *testing.T) {
	t.Parallel()

	_, ok, err := Evaluate(rule(), txn("ANY", 1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplyFirstMatchWins(t *testing.T) {
	t.Parallel()

	first := rule(func(r *domain.Rule) { r.MatchName = strptr("coffee") })
	second := rule(func(r *domain.Rule) { r.MatchName = strptr("starbucks") })

	cat, ok, err := Apply([]domain.Rule{first, second}, txn("STARBUCKS COFFEE", -4.85))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ResultCategory, cat)
}

func TestApplyNoMatch(t *testing.T) {
	t.Parallel()

	r := rule(func(r *domain.Rule) { r.MatchName = strptr("coffee") })
	_, ok, err := Apply([]domain.Rule{r}, txn("GROCERY", -20))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateRule(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateRule(rule(func(r *domain.Rule) {
		r.MatchName = strptr("coffee")
		r.MatchAmt = strptr(">=10")
	})))

	err := ValidateRule(rule(func(r *domain.Rule) { r.MatchAmt = strptr("blar") }))
	var ierr *domain.DataIntegrityError
	require.ErrorAs(t, err, &ierr)

	err = ValidateRule(rule(func(r *domain.Rule) { r.MatchName = strptr("(unclosed") }))
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "matchName", ierr.Field)
}
