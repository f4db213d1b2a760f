package summary

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmcardoso/fundpool-backend/internal/domain"
	"github.com/jmcardoso/fundpool-backend/internal/usecase/ledger"
	"github.com/jmcardoso/fundpool-backend/internal/usecase/replay"
	"github.com/shopspring/decimal"
)

// hundred is the divisor turning a fraction into a percentage.
var hundred = decimal.NewFromInt(100)

// RecentImpact is one operation together with the monetary change it caused
// on a specific client's balance
type RecentImpact struct {
	Date        time.Time
	Description string
	ResultPct   decimal.Decimal
	Impact      decimal.Decimal
}

// Summary is the client-facing view of one client's position in the pool
type Summary struct {
	Client        *domain.Client
	Profit        decimal.Decimal
	Profitability decimal.Decimal // Percentage over the initial investment
	RecentImpacts []RecentImpact  // Most recent first
}

// Service builds per-client summaries on top of the replay engine
type Service struct {
	Refresher *ledger.Refresher
}

// NewService creates a new summary Service instance
func NewService(refresher *ledger.Refresher) *Service {
	return &Service{Refresher: refresher}
}

// Summarize produces the summary for one client: final balance, total profit
// and profitability, and the client's attributed impact for each of the last
// N operations in chronological order.
//
// The impact of operation i on a client depends on the full replay state at
// i, so each of the lastN operations gets its own constrained replay from
// scratch. That is O(N*M) on purpose: lastN is small (typically <= 20) and
// recomputing beats maintaining an incremental snapshot structure.
//
// Returns domain.ErrClientNotFound for an unknown client id.
// lastN <= 0 yields an empty impact list, not an error.
func (s *Service) Summarize(ctx context.Context, clientID uuid.UUID, lastN int) (*Summary, error) {
	state, err := s.Refresher.State(ctx)
	if err != nil {
		return nil, err
	}

	var client *domain.Client
	for _, c := range state.Clients {
		if c.ID == clientID {
			client = c
			break
		}
	}
	if client == nil {
		return nil, domain.ErrClientNotFound
	}

	finalBalance := state.Result.Balances[client.ID]
	profit := finalBalance.Sub(client.InitialInvestment)

	// Zero initial investment yields zero profitability by contract, not a
	// division error
	profitability := decimal.Zero
	if !client.InitialInvestment.IsZero() {
		profitability = profit.Div(client.InitialInvestment).Mul(hundred)
	}

	impacts, err := s.recentImpacts(client, state, lastN)
	if err != nil {
		return nil, err
	}

	view := *client
	view.CurrentBalance = finalBalance

	return &Summary{
		Client:        &view,
		Profit:        profit,
		Profitability: profitability,
		RecentImpacts: impacts,
	}, nil
}

// recentImpacts computes the client's attributed impact for the last N
// operations of the chronologically sorted log, most recent first
func (s *Service) recentImpacts(client *domain.Client, state *ledger.State, lastN int) ([]RecentImpact, error) {
	if lastN <= 0 {
		return []RecentImpact{}, nil
	}
	impacts := make([]RecentImpact, 0, lastN)

	sorted := state.Result.Sorted
	start := len(sorted) - lastN
	if start < 0 {
		start = 0
	}

	// Most recent first
	for i := len(sorted) - 1; i >= start; i-- {
		op := sorted[i]

		impact, err := s.impactOf(client, state, op)
		if err != nil {
			return nil, err
		}

		impacts = append(impacts, RecentImpact{
			Date:        op.Date,
			Description: op.Description,
			ResultPct:   op.ResultPct,
			Impact:      impact,
		})
	}

	return impacts, nil
}

// impactOf reruns the replay up to (excluding) the given operation and
// derives the monetary change it caused on the client.
// Operations the client was not yet eligible for, and operations skipped
// over a zero base, contribute zero.
func (s *Service) impactOf(client *domain.Client, state *ledger.State, op *domain.Operation) (decimal.Decimal, error) {
	if !client.EligibleAt(op.Date) {
		return decimal.Zero, nil
	}

	before, err := replay.BalancesBefore(state.Clients, state.Operations, op.ID)
	if err != nil {
		return decimal.Zero, err
	}

	base := decimal.Zero
	for _, c := range state.Clients {
		if c.EligibleAt(op.Date) {
			base = base.Add(before[c.ID])
		}
	}
	if base.IsZero() {
		// The replay skipped this operation entirely
		return decimal.Zero, nil
	}

	return before[client.ID].Mul(op.ResultPct).Div(hundred), nil
}
