package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Client represents an investor participating in the pooled fund
type Client struct {
	ID                uuid.UUID
	Name              string
	Email             string
	InitialInvestment decimal.Decimal // Cost basis, fixed at creation (> 0)
	StartDate         time.Time       // Day the capital becomes eligible for operations
	CurrentBalance    decimal.Decimal // Derived: cache of replaying the operation log
	Active            bool            // Soft-disable flag; clients are never deleted
}

// Validate ensures the client adheres to domain rules
// Returns an error if validation fails
func (c *Client) Validate() error {
	if c.Name == "" {
		return errors.New("client name cannot be empty")
	}

	if c.Email == "" || !strings.Contains(c.Email, "@") {
		return errors.New("client email must be a valid address")
	}

	if c.InitialInvestment.LessThanOrEqual(decimal.Zero) {
		return errors.New("initial investment must be positive")
	}

	if c.StartDate.IsZero() {
		return errors.New("client start date cannot be empty")
	}

	return nil
}

// EligibleAt reports whether the client's capital participates in an
// operation effective at the given date.
// Eligibility is day-granular: operations dated strictly before StartDate
// never affect this client.
func (c *Client) EligibleAt(date time.Time) bool {
	return !Day(c.StartDate).After(Day(date))
}

// Day truncates a timestamp to calendar-day granularity in UTC.
// All entry dates and operation dates compare at this granularity.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
