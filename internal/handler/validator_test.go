package handler

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type boundedAmounts struct {
	Positive    decimal.Decimal `validate:"decimal_gt=0"`
	NonNegative decimal.Decimal `validate:"decimal_gte=0"`
}

func TestNewValidator_DecimalTags(t *testing.T) {
	var v *validator.Validate
	require.NotPanics(t, func() { v = NewValidator() })

	tests := []struct {
		name        string
		positive    string
		nonNegative string
		valid       bool
	}{
		{"both in range", "0.01", "0", true},
		{"zero is not positive", "0", "5", false},
		{"negative is rejected", "10", "-0.01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(boundedAmounts{
				Positive:    decimal.RequireFromString(tt.positive),
				NonNegative: decimal.RequireFromString(tt.nonNegative),
			})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
