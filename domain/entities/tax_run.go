package entities

import (
	"time"
)

// TaxRun marks a completed wealth-tax pass for one calendar date
type TaxRun struct {
	ID            int64     `db:"id"`
	DateKey       string    `db:"date_key"`
	AccountsTaxed int       `db:"accounts_taxed"`
	TotalTax      int64     `db:"total_tax"`
	RanAt         time.Time `db:"ran_at"`
}
