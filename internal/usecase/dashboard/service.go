package dashboard

import (
	"context"

	"github.com/jmcardoso/fundpool-backend/internal/usecase/ledger"
	"github.com/shopspring/decimal"
)

// Overview represents the pool-wide totals shown on the admin dashboard
type Overview struct {
	TotalInvested  decimal.Decimal // Sum of every client's cost basis
	TotalBalance   decimal.Decimal // Sum of replay-derived balances
	TotalProfit    decimal.Decimal // TotalBalance - TotalInvested
	ClientCount    int
	OperationCount int
}

// Service handles dashboard-related operations
type Service struct {
	Refresher *ledger.Refresher
}

// NewService creates a new dashboard Service instance
func NewService(refresher *ledger.Refresher) *Service {
	return &Service{Refresher: refresher}
}

// GetOverview computes pool-wide totals from a replayed view of the ledger.
// Soft-disabled clients are included: their capital is still part of the pool
// until it is withdrawn.
func (s *Service) GetOverview(ctx context.Context) (*Overview, error) {
	state, err := s.Refresher.State(ctx)
	if err != nil {
		return nil, err
	}

	totalInvested := decimal.Zero
	totalBalance := decimal.Zero
	for _, c := range state.Clients {
		totalInvested = totalInvested.Add(c.InitialInvestment)
		totalBalance = totalBalance.Add(state.Result.Balances[c.ID])
	}

	return &Overview{
		TotalInvested:  totalInvested,
		TotalBalance:   totalBalance,
		TotalProfit:    totalBalance.Sub(totalInvested),
		ClientCount:    len(state.Clients),
		OperationCount: len(state.Operations),
	}, nil
}
