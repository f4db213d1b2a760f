package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationValidate(t *testing.T) {
	tests := []struct {
		name       string
		op         Operation
		wantErr    bool
		wantErrMsg string
	}{
		{
			name: "Valid Operation",
			op: Operation{
				ID:          uuid.New(),
				Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				Description: "March rebalance",
				ResultPct:   decimal.NewFromInt(3),
			},
			wantErr: false,
		},
		{
			name: "Negative Result Is Valid",
			op: Operation{
				ID:          uuid.New(),
				Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				Description: "March drawdown",
				ResultPct:   decimal.RequireFromString("-1.5"),
			},
			wantErr: false,
		},
		{
			name: "Missing Date",
			op: Operation{
				ID:          uuid.New(),
				Description: "No date",
				ResultPct:   decimal.NewFromInt(1),
			},
			wantErr:    true,
			wantErrMsg: "date cannot be empty",
		},
		{
			name: "Missing Description",
			op: Operation{
				ID:        uuid.New(),
				Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				ResultPct: decimal.NewFromInt(1),
			},
			wantErr:    true,
			wantErrMsg: "description cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
