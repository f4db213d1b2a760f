package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmcardoso/fundpool-backend/internal/domain"
	"github.com/jmcardoso/fundpool-backend/internal/usecase/ledger"
	"github.com/shopspring/decimal"
)

// Config holds the accepted range for initial investments
type Config struct {
	MinInvestment decimal.Decimal
	MaxInvestment decimal.Decimal
}

// CreateClientInput represents the input for registering a client
type CreateClientInput struct {
	Name              string
	Email             string
	InitialInvestment decimal.Decimal
	StartDate         *time.Time // Defaults to today when nil
}

// Service handles client registry operations
type Service struct {
	ClientRepo domain.ClientRepository
	Refresher  *ledger.Refresher
	Config     Config

	// now is injectable for tests; defaults to time.Now
	now func() time.Time
}

// NewService creates a new registry Service instance
func NewService(clientRepo domain.ClientRepository, refresher *ledger.Refresher, cfg Config) *Service {
	return &Service{
		ClientRepo: clientRepo,
		Refresher:  refresher,
		Config:     cfg,
		now:        time.Now,
	}
}

// Create registers a new client.
// Logic:
//  1. Validate the initial investment against the configured range
//  2. Enforce email uniqueness
//  3. Default the start date to today when unspecified
//  4. Seed the balance from the initial investment, then refresh: a
//     backdated start date may already be inside replayed history
func (s *Service) Create(ctx context.Context, input CreateClientInput) (*domain.Client, error) {
	if err := s.validateInvestment(input.InitialInvestment); err != nil {
		return nil, err
	}

	if _, err := s.ClientRepo.GetByEmail(ctx, input.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrClientNotFound) {
		return nil, err
	}

	startDate := s.now()
	if input.StartDate != nil {
		startDate = *input.StartDate
	}

	client := &domain.Client{
		ID:                uuid.New(),
		Name:              input.Name,
		Email:             input.Email,
		InitialInvestment: input.InitialInvestment,
		StartDate:         domain.Day(startDate),
		CurrentBalance:    input.InitialInvestment,
		Active:            true,
	}

	if err := client.Validate(); err != nil {
		return nil, err
	}

	if err := s.ClientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	state, err := s.Refresher.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if balance, ok := state.Result.Balances[client.ID]; ok {
		client.CurrentBalance = balance
	}

	return client, nil
}

// Get retrieves a single client with its replay-derived balance
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	client, err := s.ClientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	state, err := s.Refresher.State(ctx)
	if err != nil {
		return nil, err
	}
	if balance, ok := state.Result.Balances[client.ID]; ok {
		client.CurrentBalance = balance
	}

	return client, nil
}

// List retrieves clients with replay-derived balances overlaid on the
// stored records
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*domain.Client, error) {
	clients, err := s.ClientRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	state, err := s.Refresher.State(ctx)
	if err != nil {
		return nil, err
	}
	for _, client := range clients {
		if balance, ok := state.Result.Balances[client.ID]; ok {
			client.CurrentBalance = balance
		}
	}

	return clients, nil
}

// UpdateInitialInvestment changes a client's cost basis and re-derives every
// balance through a full replay rather than patching the delta locally
func (s *Service) UpdateInitialInvestment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Client, error) {
	if err := s.validateInvestment(amount); err != nil {
		return nil, err
	}

	if _, err := s.ClientRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	if err := s.ClientRepo.UpdateInitialInvestment(ctx, id, amount); err != nil {
		return nil, fmt.Errorf("failed to update initial investment: %w", err)
	}

	if _, err := s.Refresher.Refresh(ctx); err != nil {
		return nil, err
	}

	return s.ClientRepo.GetByID(ctx, id)
}

// Disable soft-disables a client. Clients are never deleted: their capital
// already shaped the pool's history
func (s *Service) Disable(ctx context.Context, id uuid.UUID) error {
	if _, err := s.ClientRepo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.ClientRepo.SetActive(ctx, id, false); err != nil {
		return fmt.Errorf("failed to disable client: %w", err)
	}

	s.Refresher.Invalidate()
	return nil
}

// validateInvestment checks the amount against the configured range
func (s *Service) validateInvestment(amount decimal.Decimal) error {
	if amount.LessThan(s.Config.MinInvestment) {
		return fmt.Errorf("initial investment below minimum of %s", s.Config.MinInvestment)
	}
	if amount.GreaterThan(s.Config.MaxInvestment) {
		return fmt.Errorf("initial investment above maximum of %s", s.Config.MaxInvestment)
	}
	return nil
}
