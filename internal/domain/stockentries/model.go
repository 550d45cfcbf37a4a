package stockentries

import (
	"time"

	"github.com/shopspring/decimal"
)

type Entry struct {
	ID            int64
	MaterialID    int64
	MaterialName  string
	MaterialUnit  string
	SupplierID    int64
	SupplierName  string
	Quantity      int
	UnitPrice     decimal.NullDecimal
	Batch         string
	ExpiryDate    *time.Time
	Notes         string
	CreatedBy     int64
	CreatedByName string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TotalPrice is quantity × unit price, zero when no price was recorded.
func (e Entry) TotalPrice() decimal.Decimal {
	if !e.UnitPrice.Valid {
		return decimal.Zero
	}
	return e.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

type Input struct {
	MaterialID int64
	SupplierID int64
	Quantity   int
	UnitPrice  decimal.NullDecimal
	Batch      string
	ExpiryDate *time.Time
	Notes      string
}

type Filter struct {
	MaterialID int64
	SupplierID int64
}
