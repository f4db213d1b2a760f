package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmcardoso/fundpool-backend/internal/domain"
	"github.com/jmcardoso/fundpool-backend/internal/usecase/replay"
	"github.com/shopspring/decimal"
)

// UpsertOperationInput represents the input for recording a return event
type UpsertOperationInput struct {
	Date        time.Time
	Description string
	ResultPct   decimal.Decimal
}

// Service handles operation log mutations and reads.
// The log is append-only under (date, description) upsert semantics; the
// only removal path is Delete, which always triggers a full recompute.
type Service struct {
	OperationRepo domain.OperationRepository
	Refresher     *Refresher
}

// NewService creates a new ledger Service instance
func NewService(operationRepo domain.OperationRepository, refresher *Refresher) *Service {
	return &Service{
		OperationRepo: operationRepo,
		Refresher:     refresher,
	}
}

// List retrieves operations ordered by date, optionally bounded to a date
// range. TotalCapital on the returned records reflects the last refresh.
func (s *Service) List(ctx context.Context, from, to *time.Time) ([]*domain.Operation, error) {
	return s.OperationRepo.List(ctx, from, to)
}

// Upsert records a return event, keyed by (date, description).
// Logic:
//  1. Validate the record at the ingestion boundary (the engine assumes
//     clean input)
//  2. Seed TotalCapital with the eligible base at the operation's date,
//     computed from the current ledger state
//  3. Insert, or update ResultPct in place when the key already exists
//  4. Refresh: every stored balance and snapshot is stale after the
//     mutation and must be recomputed before being trusted
func (s *Service) Upsert(ctx context.Context, input UpsertOperationInput) (*domain.Operation, error) {
	op := &domain.Operation{
		ID:          uuid.New(),
		Date:        domain.Day(input.Date),
		Description: input.Description,
		ResultPct:   input.ResultPct,
	}

	if err := op.Validate(); err != nil {
		return nil, err
	}

	state, err := s.Refresher.State(ctx)
	if err != nil {
		return nil, err
	}
	op.TotalCapital = replay.BaseAt(state.Clients, state.Operations, op.Date)

	stored, err := s.OperationRepo.Upsert(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert operation: %w", err)
	}

	refreshed, err := s.Refresher.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	if snapshot, ok := refreshed.Snapshot(stored.ID); ok {
		stored.TotalCapital = snapshot
	}
	return stored, nil
}

// Delete removes an operation from the log and replays the remaining history
// in full. Reversing a single operation's recorded impact against current
// balances gives a different (wrong) result whenever other operations
// happened in between, so deletion is always remove-then-replay.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.OperationRepo.Delete(ctx, id); err != nil {
		return err
	}

	if _, err := s.Refresher.Refresh(ctx); err != nil {
		return err
	}
	return nil
}
