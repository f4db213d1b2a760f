package summary

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmcardoso/fundpool-backend/internal/domain"
	"github.com/jmcardoso/fundpool-backend/internal/usecase/ledger"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClientRepository is a mock implementation of ClientRepository for testing
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockClientRepository) GetByEmail(ctx context.Context, email string) (*domain.Client, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockClientRepository) Create(ctx context.Context, client *domain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Client, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Client), args.Error(1)
}

func (m *MockClientRepository) UpdateInitialInvestment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockClientRepository) UpdateBalances(ctx context.Context, balances map[uuid.UUID]decimal.Decimal) error {
	args := m.Called(ctx, balances)
	return args.Error(0)
}

func (m *MockClientRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

// MockOperationRepository is a mock implementation of OperationRepository for testing
type MockOperationRepository struct {
	mock.Mock
}

func (m *MockOperationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Operation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operation), args.Error(1)
}

func (m *MockOperationRepository) List(ctx context.Context, from, to *time.Time) ([]*domain.Operation, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Operation), args.Error(1)
}

func (m *MockOperationRepository) Upsert(ctx context.Context, op *domain.Operation) (*domain.Operation, error) {
	args := m.Called(ctx, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operation), args.Error(1)
}

func (m *MockOperationRepository) UpdateTotalCapitals(ctx context.Context, snapshots map[uuid.UUID]decimal.Decimal) error {
	args := m.Called(ctx, snapshots)
	return args.Error(0)
}

func (m *MockOperationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}

// newService wires a summary service over mocked repositories serving the
// given ledger contents
func newService(t *testing.T, clients []*domain.Client, operations []*domain.Operation) *Service {
	t.Helper()
	mockClientRepo := new(MockClientRepository)
	mockOperationRepo := new(MockOperationRepository)
	mockClientRepo.On("List", mock.Anything, false).Return(clients, nil)
	mockOperationRepo.On("List", mock.Anything, (*time.Time)(nil), (*time.Time)(nil)).Return(operations, nil)

	refresher := ledger.NewRefresher(mockClientRepo, mockOperationRepo, cache.New(time.Minute, time.Minute))
	return NewService(refresher)
}

func twoClientScenario(t *testing.T) (client1, client2 *domain.Client, operations []*domain.Operation) {
	t.Helper()
	client1 = &domain.Client{
		ID:                uuid.New(),
		Name:              "First",
		Email:             "first@example.com",
		InitialInvestment: decimal.NewFromInt(1000),
		StartDate:         mustDate(t, "2024-01-01"),
		Active:            true,
	}
	client2 = &domain.Client{
		ID:                uuid.New(),
		Name:              "Second",
		Email:             "second@example.com",
		InitialInvestment: decimal.NewFromInt(500),
		StartDate:         mustDate(t, "2024-01-10"),
		Active:            true,
	}
	operations = []*domain.Operation{
		{
			ID:          uuid.New(),
			Date:        mustDate(t, "2024-01-05"),
			Description: "January gain",
			ResultPct:   decimal.NewFromInt(10),
		},
		{
			ID:          uuid.New(),
			Date:        mustDate(t, "2024-01-15"),
			Description: "Mid-January dip",
			ResultPct:   decimal.NewFromInt(-5),
		},
	}
	return client1, client2, operations
}

func TestSummarize_ProfitAndProfitability(t *testing.T) {
	ctx := context.Background()
	client1, client2, operations := twoClientScenario(t)

	service := newService(t, []*domain.Client{client1, client2}, operations)

	result, err := service.Summarize(ctx, client1.ID, 10)
	require.NoError(t, err)

	// 1000 * 1.10 * 0.95 = 1045
	assert.True(t, result.Client.CurrentBalance.Equal(decimal.NewFromInt(1045)))
	assert.True(t, result.Profit.Equal(decimal.NewFromInt(45)))
	assert.True(t, result.Profitability.Equal(decimal.RequireFromString("4.5")),
		"expected 4.5%%, got %s", result.Profitability)
}

func TestSummarize_RecentImpactsMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	client1, client2, operations := twoClientScenario(t)

	service := newService(t, []*domain.Client{client1, client2}, operations)

	result, err := service.Summarize(ctx, client1.ID, 10)
	require.NoError(t, err)
	require.Len(t, result.RecentImpacts, 2)

	// Most recent first: the dip, then the gain
	assert.Equal(t, "Mid-January dip", result.RecentImpacts[0].Description)
	assert.True(t, result.RecentImpacts[0].Impact.Equal(decimal.NewFromInt(-55)),
		"client 1 held 1100 before the -5%% operation")
	assert.Equal(t, "January gain", result.RecentImpacts[1].Description)
	assert.True(t, result.RecentImpacts[1].Impact.Equal(decimal.NewFromInt(100)))
}

func TestSummarize_ImpactZeroBeforeEntry(t *testing.T) {
	ctx := context.Background()
	client1, client2, operations := twoClientScenario(t)

	service := newService(t, []*domain.Client{client1, client2}, operations)

	result, err := service.Summarize(ctx, client2.ID, 10)
	require.NoError(t, err)
	require.Len(t, result.RecentImpacts, 2)

	// Client 2 entered on 2024-01-10: the 2024-01-05 operation never touched it
	assert.True(t, result.RecentImpacts[0].Impact.Equal(decimal.NewFromInt(-25)),
		"client 2 held 500 before the -5%% operation")
	assert.True(t, result.RecentImpacts[1].Impact.Equal(decimal.Zero))
}

func TestSummarize_LastNLimitsAndOrders(t *testing.T) {
	ctx := context.Background()
	client1, client2, operations := twoClientScenario(t)

	service := newService(t, []*domain.Client{client1, client2}, operations)

	result, err := service.Summarize(ctx, client1.ID, 1)
	require.NoError(t, err)
	require.Len(t, result.RecentImpacts, 1)
	assert.Equal(t, "Mid-January dip", result.RecentImpacts[0].Description)
}

func TestSummarize_NonPositiveLastNYieldsEmptyList(t *testing.T) {
	ctx := context.Background()
	client1, client2, operations := twoClientScenario(t)

	service := newService(t, []*domain.Client{client1, client2}, operations)

	for _, lastN := range []int{0, -3} {
		result, err := service.Summarize(ctx, client1.ID, lastN)
		require.NoError(t, err)
		assert.Empty(t, result.RecentImpacts)
		assert.True(t, result.Profit.Equal(decimal.NewFromInt(45)),
			"totals are still computed when no impacts are requested")
	}
}

func TestSummarize_UnknownClient(t *testing.T) {
	ctx := context.Background()
	client1, client2, operations := twoClientScenario(t)

	service := newService(t, []*domain.Client{client1, client2}, operations)

	_, err := service.Summarize(ctx, uuid.New(), 10)
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}

func TestSummarize_ZeroInvestmentProfitabilityGuard(t *testing.T) {
	ctx := context.Background()

	client := &domain.Client{
		ID:                uuid.New(),
		Name:              "Zero",
		Email:             "zero@example.com",
		InitialInvestment: decimal.Zero,
		StartDate:         mustDate(t, "2024-01-01"),
		Active:            true,
	}
	operations := []*domain.Operation{
		{
			ID:          uuid.New(),
			Date:        mustDate(t, "2024-01-05"),
			Description: "Gain",
			ResultPct:   decimal.NewFromInt(10),
		},
	}

	service := newService(t, []*domain.Client{client}, operations)

	result, err := service.Summarize(ctx, client.ID, 10)
	require.NoError(t, err)

	assert.True(t, result.Profit.Equal(decimal.Zero))
	assert.True(t, result.Profitability.Equal(decimal.Zero),
		"zero initial investment must yield zero profitability, not a division error")
}
