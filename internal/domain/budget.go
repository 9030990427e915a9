package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Budget allocates Amt against a category every Period months, starting
// at CreateDate. Budget dates are month-granular: they are standardized
// to the first day of their month on input.
type Budget struct {
	ID           uuid.UUID  `json:"id"`
	Category     uuid.UUID  `json:"category"`
	Amt          float64    `json:"amt"`
	Period       int        `json:"period"`
	CreateDate   time.Time  `json:"createDate"`
	InactiveDate *time.Time `json:"inactiveDate,omitempty"`
	Owner        uuid.UUID  `json:"owner"`
}

// AllocatedBudget is the report shape for one budget in one month: the
// monthly slice of the budget, the amount accumulated across the current
// period, and the amount actually allocated (spent or received).
type AllocatedBudget struct {
	ID             uuid.UUID  `json:"id"`
	Category       Category   `json:"category"`
	Amt            float64    `json:"amt"`
	MonthAmt       float64    `json:"monthAmt"`
	AccumulatedAmt float64    `json:"accumulatedAmt"`
	AllocatedAmt   float64    `json:"allocatedAmt"`
	Period         int        `json:"period"`
	CreateDate     time.Time  `json:"createDate"`
	InactiveDate   *time.Time `json:"inactiveDate,omitempty"`
	Owner          uuid.UUID  `json:"owner"`
}

// BudgetInput is the write shape for budgets.
type BudgetInput struct {
	Category     uuid.UUID  `json:"category"`
	Amt          float64    `json:"amt"`
	Period       int        `json:"period"`
	CreateDate   time.Time  `json:"createDate"`
	InactiveDate *time.Time `json:"inactiveDate,omitempty"`
	Owner        uuid.UUID  `json:"owner"`
}

// DecodeBudgetInput converts a BudgetInput into a Budget under id,
// standardizing dates to the first of their month.
func DecodeBudgetInput(id uuid.UUID, in BudgetInput) Budget {
	var inactive *time.Time
	if in.InactiveDate != nil {
		d := MonthStart(*in.InactiveDate)
		inactive = &d
	}
	return Budget{
		ID:           id,
		Category:     in.Category,
		Amt:          in.Amt,
		Period:       in.Period,
		CreateDate:   MonthStart(in.CreateDate),
		InactiveDate: inactive,
		Owner:        in.Owner,
	}
}

// AccumulatedBudget returns the monthly slice of a budget and the amount
// accumulated by compareDate within the current period. A period-3 budget
// of 750 created in November accumulates 250, 500, 750 over December,
// January, February, then resets.
func AccumulatedBudget(amt float64, period int, createDate, compareDate time.Time) (monthAmt, accumulatedAmt float64) {
	monthAmt = amt / float64(period)
	elapsed := int(compareDate.Sub(createDate).Hours()/24) / 30
	accumulatedAmt = monthAmt * float64(elapsed%period+1)
	return monthAmt, accumulatedAmt
}

// AnticipatedNet is the amount a budget is expected to consume in its
// month: the monthly slice, plus any overrun beyond the full budget.
func AnticipatedNet(b AllocatedBudget) float64 {
	return b.MonthAmt + math.Max(0, b.AllocatedAmt-b.Amt)
}

// UnallocatedBudget and UnallocatedCategory are the synthetic bucket the
// budget report uses for spending in categories with no budget of their
// own.
var (
	UnallocatedBudget   = uuid.MustParse("df9b14f9-829a-4758-bee7-05a380654b91")
	UnallocatedCategory = Category{
		ID:    uuid.MustParse("0d495bad-c52e-49cb-826e-29285153c812"),
		Name:  "Unallocated",
		Owner: SystemUser.ID,
	}
)

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
