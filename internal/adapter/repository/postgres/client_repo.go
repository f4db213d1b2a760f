package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmcardoso/fundpool-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// clientRepository implements domain.ClientRepository
type clientRepository struct {
	db *DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *DB) domain.ClientRepository {
	return &clientRepository{db: db}
}

const clientColumns = `id, name, email, initial_investment, start_date, current_balance, active`

// GetByID retrieves a client by its ID
func (r *clientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE id = $1
	`

	client, err := scanClient(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client %s: %w", id, domain.ErrClientNotFound)
		}
		return nil, fmt.Errorf("failed to get client by ID: %w", err)
	}

	return client, nil
}

// GetByEmail retrieves a client by its email address
func (r *clientRepository) GetByEmail(ctx context.Context, email string) (*domain.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE email = $1
	`

	client, err := scanClient(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client %s: %w", email, domain.ErrClientNotFound)
		}
		return nil, fmt.Errorf("failed to get client by email: %w", err)
	}

	return client, nil
}

// Create creates a new client
func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	query := `
		INSERT INTO clients (id, name, email, initial_investment, start_date, current_balance, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		client.ID,
		client.Name,
		client.Email,
		client.InitialInvestment.String(),
		client.StartDate,
		client.CurrentBalance.String(),
		client.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

// List retrieves all clients in creation order
func (r *clientRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients
	`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]*domain.Client, 0)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client row: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate client rows: %w", err)
	}

	return clients, nil
}

// UpdateInitialInvestment changes a client's cost basis
func (r *clientRepository) UpdateInitialInvestment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE clients
		SET initial_investment = $2
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, amount.String())
	if err != nil {
		return fmt.Errorf("failed to update initial investment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("client %s: %w", id, domain.ErrClientNotFound)
	}

	return nil
}

// UpdateBalances persists derived balances inside a single transaction so a
// concurrent reader never observes a half-written ledger
func (r *clientRepository) UpdateBalances(ctx context.Context, balances map[uuid.UUID]decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin balance update: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE clients
		SET current_balance = $2
		WHERE id = $1
	`
	for id, balance := range balances {
		if _, err := tx.ExecContext(ctx, query, id, balance.String()); err != nil {
			return fmt.Errorf("failed to update balance for client %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit balance update: %w", err)
	}
	return nil
}

// SetActive toggles the soft-disable flag
func (r *clientRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `
		UPDATE clients
		SET active = $2
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to set client active flag: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("client %s: %w", id, domain.ErrClientNotFound)
	}

	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanClient reads one client row, parsing DECIMAL columns from strings
func scanClient(row rowScanner) (*domain.Client, error) {
	var client domain.Client
	var investmentStr, balanceStr string

	err := row.Scan(
		&client.ID,
		&client.Name,
		&client.Email,
		&investmentStr,
		&client.StartDate,
		&balanceStr,
		&client.Active,
	)
	if err != nil {
		return nil, err
	}

	investment, err := decimal.NewFromString(investmentStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse initial_investment: %w", err)
	}
	client.InitialInvestment = investment

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse current_balance: %w", err)
	}
	client.CurrentBalance = balance

	return &client, nil
}
