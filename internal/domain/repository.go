package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientRepository defines the interface for client persistence operations
type ClientRepository interface {
	// GetByID retrieves a client by its ID
	// Returns ErrClientNotFound if no client exists with that ID
	GetByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// GetByEmail retrieves a client by its email address
	// Returns ErrClientNotFound if no client exists with that email
	GetByEmail(ctx context.Context, email string) (*Client, error)

	// Create creates a new client
	Create(ctx context.Context, client *Client) error

	// List retrieves all clients in creation order
	// If activeOnly is true, soft-disabled clients are excluded
	List(ctx context.Context, activeOnly bool) ([]*Client, error)

	// UpdateInitialInvestment changes a client's cost basis
	UpdateInitialInvestment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error

	// UpdateBalances persists derived balances for many clients at once
	// Runs inside a single transaction so concurrent readers never observe
	// a half-written ledger
	UpdateBalances(ctx context.Context, balances map[uuid.UUID]decimal.Decimal) error

	// SetActive toggles the soft-disable flag
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// OperationRepository defines the interface for operation log persistence
type OperationRepository interface {
	// GetByID retrieves an operation by its ID
	// Returns ErrOperationNotFound if no operation exists with that ID
	GetByID(ctx context.Context, id uuid.UUID) (*Operation, error)

	// List retrieves operations ordered by date ascending, with insertion
	// order as the tie-break for same-date operations.
	// from/to bound the effective date range; either may be nil
	List(ctx context.Context, from, to *time.Time) ([]*Operation, error)

	// Upsert inserts the operation or, if one with the same
	// (date, description) pair exists, updates its result percentage and
	// total capital in place. Returns the stored operation.
	Upsert(ctx context.Context, op *Operation) (*Operation, error)

	// UpdateTotalCapitals persists derived pool snapshots for many
	// operations at once, inside a single transaction
	UpdateTotalCapitals(ctx context.Context, snapshots map[uuid.UUID]decimal.Decimal) error

	// Delete removes an operation from the log
	// Returns ErrOperationNotFound if no operation exists with that ID
	Delete(ctx context.Context, id uuid.UUID) error
}
