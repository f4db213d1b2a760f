package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmcardoso/fundpool-backend/internal/domain"
	"github.com/jmcardoso/fundpool-backend/internal/usecase/replay"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// stateCacheKey stores the memoized replay of the current ledger.
const stateCacheKey = "ledger:state"

// State is a consistent point-in-time view of the ledger: the loaded clients
// and operations plus the replay computed over them.
type State struct {
	Clients    []*domain.Client
	Operations []*domain.Operation
	Result     *replay.Result
}

// Snapshot returns the eligible pool size recorded for the given operation
// within this state's replay. Returns false if the operation is not in the
// replayed log.
func (s *State) Snapshot(opID uuid.UUID) (decimal.Decimal, bool) {
	for i, op := range s.Result.Sorted {
		if op.ID == opID {
			return s.Result.Snapshots[i], true
		}
	}
	return decimal.Zero, false
}

// Refresher is the single path through which derived ledger values (client
// balances and per-operation pool snapshots) are recomputed and persisted.
// Every mutation to the client registry or the operation log must go through
// Refresh; stored balances are strictly a cache of the replay.
type Refresher struct {
	ClientRepo    domain.ClientRepository
	OperationRepo domain.OperationRepository
	Cache         *cache.Cache
}

// NewRefresher creates a new Refresher instance
func NewRefresher(clientRepo domain.ClientRepository, operationRepo domain.OperationRepository, c *cache.Cache) *Refresher {
	return &Refresher{
		ClientRepo:    clientRepo,
		OperationRepo: operationRepo,
		Cache:         c,
	}
}

// State returns a replayed view of the current ledger, serving the memoized
// copy when no mutation has happened since it was computed.
func (r *Refresher) State(ctx context.Context) (*State, error) {
	if cached, ok := r.Cache.Get(stateCacheKey); ok {
		if state, ok := cached.(*State); ok {
			return state, nil
		}
	}

	state, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	r.Cache.Set(stateCacheKey, state, cache.DefaultExpiration)
	return state, nil
}

// Refresh recomputes every derived value from scratch and persists it:
// client balances via the replay, operation total capital via the replay's
// pool snapshots. The memoized state is replaced by the fresh one.
func (r *Refresher) Refresh(ctx context.Context) (*State, error) {
	state, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.ClientRepo.UpdateBalances(ctx, state.Result.Balances); err != nil {
		return nil, fmt.Errorf("failed to persist client balances: %w", err)
	}

	snapshots := make(map[uuid.UUID]decimal.Decimal, len(state.Result.Sorted))
	for i, op := range state.Result.Sorted {
		snapshots[op.ID] = state.Result.Snapshots[i]
	}
	if err := r.OperationRepo.UpdateTotalCapitals(ctx, snapshots); err != nil {
		return nil, fmt.Errorf("failed to persist pool snapshots: %w", err)
	}

	// Reflect the persisted values on the in-memory view as well
	for _, c := range state.Clients {
		c.CurrentBalance = state.Result.Balances[c.ID]
	}
	for _, op := range state.Operations {
		if snapshot, ok := snapshots[op.ID]; ok {
			op.TotalCapital = snapshot
		}
	}

	r.Cache.Flush()
	r.Cache.Set(stateCacheKey, state, cache.DefaultExpiration)
	return state, nil
}

// Invalidate drops the memoized state so the next read reloads the ledger.
func (r *Refresher) Invalidate() {
	r.Cache.Delete(stateCacheKey)
}

// load fetches clients and operations as a single query pair and replays
// over that snapshot. Soft-disabled clients stay in the replay: their history
// already shaped the pool.
func (r *Refresher) load(ctx context.Context) (*State, error) {
	clients, err := r.ClientRepo.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	operations, err := r.OperationRepo.List(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}

	return &State{
		Clients:    clients,
		Operations: operations,
		Result:     replay.Replay(clients, operations),
	}, nil
}
