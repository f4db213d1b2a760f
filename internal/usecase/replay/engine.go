package replay

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmcardoso/fundpool-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// hundred is the divisor turning a percentage into a fraction.
var hundred = decimal.NewFromInt(100)

// Result holds the outcome of replaying the full operation log.
type Result struct {
	// Balances maps each client ID to its final balance
	Balances map[uuid.UUID]decimal.Decimal

	// Sorted is the operation log in replay order (date ascending,
	// insertion order as tie-break)
	Sorted []*domain.Operation

	// Snapshots holds the eligible pool size immediately before each
	// operation in Sorted was applied (same indexing as Sorted)
	Snapshots []decimal.Decimal
}

// Replay deterministically recomputes every client's balance by applying the
// operation log in chronological order to each client's initial investment.
// Logic:
//  1. Stable-sort operations by date ascending (stable is required: same-date
//     operations must keep their insertion order, or results change)
//  2. Start every client at its initial investment
//  3. For each operation, sum the balances of clients whose start date has
//     passed (the eligible base) and apply the percentage return
//     proportionally to each eligible client, clamping balances at zero
//
// A zero eligible base skips the operation: with no eligible clients the
// pre-recorded total capital (if any) is preserved as the snapshot, otherwise
// the snapshot is zero.
//
// Replay never mutates its inputs.
func Replay(clients []*domain.Client, operations []*domain.Operation) *Result {
	sorted := sortOperations(operations)

	balances := make(map[uuid.UUID]decimal.Decimal, len(clients))
	for _, c := range clients {
		balances[c.ID] = c.InitialInvestment
	}

	snapshots := make([]decimal.Decimal, len(sorted))
	for i, op := range sorted {
		snapshots[i] = applyOperation(clients, balances, op)
	}

	return &Result{
		Balances:  balances,
		Sorted:    sorted,
		Snapshots: snapshots,
	}
}

// BalancesBefore replays the log and returns every client's balance
// immediately prior to the given operation being applied within its own
// date's eligible group. Same-date operations inserted earlier are applied;
// the target operation and everything after it are not.
// Returns domain.ErrOperationNotFound if the id is not in the log.
func BalancesBefore(clients []*domain.Client, operations []*domain.Operation, opID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	sorted := sortOperations(operations)

	balances := make(map[uuid.UUID]decimal.Decimal, len(clients))
	for _, c := range clients {
		balances[c.ID] = c.InitialInvestment
	}

	for _, op := range sorted {
		if op.ID == opID {
			return balances, nil
		}
		applyOperation(clients, balances, op)
	}

	return nil, domain.ErrOperationNotFound
}

// BaseAt returns the eligible pool size at the given cutoff date: the log is
// replayed through every operation dated at or before the cutoff, then the
// balances of clients eligible at the cutoff are summed.
func BaseAt(clients []*domain.Client, operations []*domain.Operation, cutoff time.Time) decimal.Decimal {
	day := domain.Day(cutoff)

	truncated := make([]*domain.Operation, 0, len(operations))
	for _, op := range operations {
		if !domain.Day(op.Date).After(day) {
			truncated = append(truncated, op)
		}
	}

	result := Replay(clients, truncated)

	base := decimal.Zero
	for _, c := range clients {
		if c.EligibleAt(day) {
			base = base.Add(result.Balances[c.ID])
		}
	}
	return base
}

// applyOperation mutates balances in place for one operation and returns the
// snapshot (eligible base before application).
func applyOperation(clients []*domain.Client, balances map[uuid.UUID]decimal.Decimal, op *domain.Operation) decimal.Decimal {
	eligible := make([]*domain.Client, 0, len(clients))
	base := decimal.Zero
	for _, c := range clients {
		if c.EligibleAt(op.Date) {
			eligible = append(eligible, c)
			base = base.Add(balances[c.ID])
		}
	}

	if base.IsZero() {
		// No eligible capital. An externally imported total capital is
		// preserved when no clients are eligible at all; a pool fully drawn
		// down to zero records a zero snapshot.
		if len(eligible) == 0 && !op.TotalCapital.IsZero() {
			return op.TotalCapital
		}
		return decimal.Zero
	}

	for _, c := range eligible {
		current := balances[c.ID]
		impact := current.Mul(op.ResultPct).Div(hundred)
		next := current.Add(impact)
		if next.IsNegative() {
			next = decimal.Zero
		}
		balances[c.ID] = next
	}

	return base
}

// sortOperations returns a copy of the log sorted by date ascending.
// The sort is stable so same-date operations keep their insertion order.
func sortOperations(operations []*domain.Operation) []*domain.Operation {
	sorted := make([]*domain.Operation, len(operations))
	copy(sorted, operations)

	sort.SliceStable(sorted, func(i, j int) bool {
		return domain.Day(sorted[i].Date).Before(domain.Day(sorted[j].Date))
	})

	return sorted
}
