package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmcardoso/fundpool-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// operationRepository implements domain.OperationRepository
type operationRepository struct {
	db *DB
}

// NewOperationRepository creates a new operation repository
func NewOperationRepository(db *DB) domain.OperationRepository {
	return &operationRepository{db: db}
}

const operationColumns = `id, date, description, result_pct, total_capital, created_at`

// GetByID retrieves an operation by its ID
func (r *operationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Operation, error) {
	query := `
		SELECT ` + operationColumns + `
		FROM operations
		WHERE id = $1
	`

	op, err := scanOperation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("operation %s: %w", id, domain.ErrOperationNotFound)
		}
		return nil, fmt.Errorf("failed to get operation by ID: %w", err)
	}

	return op, nil
}

// List retrieves operations ordered by date ascending; created_at breaks
// same-date ties so the replay sees insertion order
func (r *operationRepository) List(ctx context.Context, from, to *time.Time) ([]*domain.Operation, error) {
	query := `
		SELECT ` + operationColumns + `
		FROM operations
		WHERE 1=1
	`
	args := make([]interface{}, 0, 2)
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += ` ORDER BY date ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	operations := make([]*domain.Operation, 0)
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation row: %w", err)
		}
		operations = append(operations, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operation rows: %w", err)
	}

	return operations, nil
}

// Upsert inserts the operation or updates the existing record sharing its
// (date, description) key. The uniqueness constraint on (date, description)
// makes this a single atomic statement.
func (r *operationRepository) Upsert(ctx context.Context, op *domain.Operation) (*domain.Operation, error) {
	query := `
		INSERT INTO operations (id, date, description, result_pct, total_capital, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (date, description)
		DO UPDATE SET result_pct = EXCLUDED.result_pct, total_capital = EXCLUDED.total_capital
		RETURNING ` + operationColumns + `
	`

	stored, err := scanOperation(r.db.QueryRowContext(ctx, query,
		op.ID,
		op.Date,
		op.Description,
		op.ResultPct.String(),
		op.TotalCapital.String(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert operation: %w", err)
	}

	return stored, nil
}

// UpdateTotalCapitals persists derived pool snapshots inside a single
// transaction
func (r *operationRepository) UpdateTotalCapitals(ctx context.Context, snapshots map[uuid.UUID]decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot update: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE operations
		SET total_capital = $2
		WHERE id = $1
	`
	for id, snapshot := range snapshots {
		if _, err := tx.ExecContext(ctx, query, id, snapshot.String()); err != nil {
			return fmt.Errorf("failed to update total capital for operation %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot update: %w", err)
	}
	return nil
}

// Delete removes an operation from the log
func (r *operationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM operations
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete operation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("operation %s: %w", id, domain.ErrOperationNotFound)
	}

	return nil
}

// scanOperation reads one operation row, parsing DECIMAL columns from strings
func scanOperation(row rowScanner) (*domain.Operation, error) {
	var op domain.Operation
	var pctStr, capitalStr string

	err := row.Scan(
		&op.ID,
		&op.Date,
		&op.Description,
		&pctStr,
		&capitalStr,
		&op.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	pct, err := decimal.NewFromString(pctStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse result_pct: %w", err)
	}
	op.ResultPct = pct

	capital, err := decimal.NewFromString(capitalStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse total_capital: %w", err)
	}
	op.TotalCapital = capital

	return &op, nil
}
