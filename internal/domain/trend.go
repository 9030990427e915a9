package domain

import "time"

// NetIncomeByMonth is one month of a net-income trend. Income and
// Expense are both reported as positive magnitudes.
type NetIncomeByMonth struct {
	Date    time.Time `json:"date"`
	Income  float64   `json:"income"`
	Expense float64   `json:"expense"`
	Net     float64   `json:"net"`
}

// CategorySpendingByMonth is one month of a single category's spending
// trend. Amt is a positive magnitude.
type CategorySpendingByMonth struct {
	Date     time.Time `json:"date"`
	Category Category  `json:"category"`
	Amt      float64   `json:"amt"`
}
