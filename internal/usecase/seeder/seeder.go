package seeder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmcardoso/fundpool-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// demoClientID is fixed so repeated seeding stays idempotent
var demoClientID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// DemoSeeder seeds a demo client so a fresh deployment has something to
// show. Seeding only runs against an empty registry.
type DemoSeeder struct {
	repo domain.ClientRepository
}

// NewDemoSeeder creates a new DemoSeeder instance
func NewDemoSeeder(repo domain.ClientRepository) *DemoSeeder {
	return &DemoSeeder{
		repo: repo,
	}
}

// Seed creates the demo client if the registry is empty
func (s *DemoSeeder) Seed(ctx context.Context) error {
	clients, err := s.repo.List(ctx, false)
	if err != nil {
		return err
	}
	if len(clients) > 0 {
		// Registry already has data, nothing to seed
		return nil
	}

	initial := decimal.NewFromInt(25000)
	client := &domain.Client{
		ID:                demoClientID,
		Name:              "Demo Client",
		Email:             "demo@fundpool.dev",
		InitialInvestment: initial,
		StartDate:         domain.Day(time.Now()),
		CurrentBalance:    initial,
		Active:            true,
	}

	if err := client.Validate(); err != nil {
		return err
	}

	return s.repo.Create(ctx, client)
}
