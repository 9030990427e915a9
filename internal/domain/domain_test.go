package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDecodeTransactionInputForcesSign(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	account := uuid.New()
	id := uuid.New()

	in := TransactionInput{
		FitID:   "fit-1",
		Amt:     42.5,
		Type:    Debit,
		Date:    time.Date(2024, 3, 5, 13, 45, 12, 0, time.UTC),
		Name:    "COFFEE",
		Account: account,
		Owner:   owner,
	}
	txn := DecodeTransactionInput(id, in)
	assert.Equal(t, -42.5, txn.Amt)
	assert.Equal(t, Uncategorized.ID, txn.Category)
	assert.Equal(t, date(2024, 3, 5), txn.Date)

	in.Type = Credit
	in.Amt = -42.5
	txn = DecodeTransactionInput(id, in)
	assert.Equal(t, 42.5, txn.Amt)
}

func TestTypeForAmount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Credit, TypeForAmount(10))
	assert.Equal(t, Debit, TypeForAmount(-10))
	assert.Equal(t, Credit, TypeForAmount(0))
}

func TestDecodeBudgetInputStandardizesDates(t *testing.T) {
	t.Parallel()

	inactive := date(2024, 6, 17)
	b := DecodeBudgetInput(uuid.New(), BudgetInput{
		Category:     uuid.New(),
		Amt:          100,
		Period:       1,
		CreateDate:   time.Date(2024, 2, 29, 8, 30, 0, 0, time.UTC),
		InactiveDate: &inactive,
		Owner:        uuid.New(),
	})
	assert.Equal(t, date(2024, 2, 1), b.CreateDate)
	require.NotNil(t, b.InactiveDate)
	assert.Equal(t, date(2024, 6, 1), *b.InactiveDate)
}

func TestAccumulatedBudget(t *testing.T) {
	t.Parallel()

	create := date(2023, 11, 1)

	for _, tc := range []struct {
		name        string
		amt         float64
		period      int
		compare     time.Time
		monthAmt    float64
		accumulated float64
	}{
		{"monthly same month", 100, 1, date(2023, 11, 15), 100, 100},
		{"monthly later month", 100, 1, date(2024, 3, 15), 100, 100},
		{"quarterly first month", 750, 3, date(2023, 11, 15), 250, 250},
		{"quarterly second month", 750, 3, date(2023, 12, 15), 250, 500},
		{"quarterly third month", 750, 3, date(2024, 1, 15), 250, 750},
		{"quarterly resets", 750, 3, date(2024, 2, 15), 250, 250},
	} {
		t.Run(tc.name, func(t *testing.T) {
			monthAmt, accumulated := AccumulatedBudget(tc.amt, tc.period, create, tc.compare)
			assert.InDelta(t, tc.monthAmt, monthAmt, 0.001)
			assert.InDelta(t, tc.accumulated, accumulated, 0.001)
		})
	}
}

func TestAnticipatedNet(t *testing.T) {
	t.Parallel()

	b := AllocatedBudget{Amt: 300, MonthAmt: 100, Period: 3}

	b.AllocatedAmt = 50
	assert.InDelta(t, 100, AnticipatedNet(b), 0.001)

	b.AllocatedAmt = 300
	assert.InDelta(t, 100, AnticipatedNet(b), 0.001)

	b.AllocatedAmt = 425.5
	assert.InDelta(t, 225.5, AnticipatedNet(b), 0.001)
}

func TestDateOnly(t *testing.T) {
	t.Parallel()

	got := DateOnly(time.Date(2024, 7, 4, 23, 59, 59, 999, time.UTC))
	assert.Equal(t, date(2024, 7, 4), got)
}

func TestSystemCategoriesOwnedBySystemUser(t *testing.T) {
	t.Parallel()

	for _, c := range SystemCategories {
		assert.Equal(t, SystemUser.ID, c.Owner, c.Name)
	}
}
