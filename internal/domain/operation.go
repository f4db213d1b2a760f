package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Operation represents a dated percentage-return event applied to the
// eligible pool.
// The pair (Date, Description) is the natural upsert key: recording the same
// pair again updates ResultPct in place instead of appending a duplicate.
type Operation struct {
	ID           uuid.UUID
	Date         time.Time       // Effective date, day granularity
	Description  string          // Display label, part of the upsert key
	ResultPct    decimal.Decimal // Signed percentage return (e.g. 2.8 for +2.8%)
	TotalCapital decimal.Decimal // Derived: eligible pool size just before the operation
	CreatedAt    time.Time       // Insertion order, the tie-break for same-date operations
}

// Validate ensures the operation adheres to domain rules
// Returns an error if validation fails
func (o *Operation) Validate() error {
	if o.Date.IsZero() {
		return errors.New("operation date cannot be empty")
	}

	if o.Description == "" {
		return errors.New("operation description cannot be empty")
	}

	return nil
}
