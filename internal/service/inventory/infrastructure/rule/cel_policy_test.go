// internal/service/inventory/infrastructure/rule/cel_policy_test.go
package rule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depot/internal/service/inventory/domain/port"
)

func TestNewCELPolicyAdapter_EmptyExpression(t *testing.T) {
	adapter, err := NewCELPolicyAdapter("")
	require.NoError(t, err)
	assert.Nil(t, adapter)
}

func TestNewCELPolicyAdapter_InvalidExpression(t *testing.T) {
	_, err := NewCELPolicyAdapter("quantity <= ")
	assert.Error(t, err)
}

func TestNewCELPolicyAdapter_NonBoolExpression(t *testing.T) {
	_, err := NewCELPolicyAdapter("quantity + 1")
	assert.Error(t, err)
}

func TestCELPolicyAdapter_Allow(t *testing.T) {
	adapter, err := NewCELPolicyAdapter("quantity <= 10 && category != 'restricted'")
	require.NoError(t, err)

	tests := []struct {
		name string
		fact port.ReservationFact
		want bool
	}{
		{
			name: "within limit",
			fact: port.ReservationFact{Category: "phone", Quantity: 10},
			want: true,
		},
		{
			name: "over limit",
			fact: port.ReservationFact{Category: "phone", Quantity: 11},
			want: false,
		},
		{
			name: "restricted category",
			fact: port.ReservationFact{Category: "restricted", Quantity: 1},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := adapter.Allow(context.Background(), tt.fact)
			require.NoError(t, err)
			assert.Equal(t, tt.want, allowed)
		})
	}
}

func TestCELPolicyAdapter_UsesAvailable(t *testing.T) {
	// 预约后必须保留至少 2 件安全库存
	adapter, err := NewCELPolicyAdapter("available - quantity >= 2")
	require.NoError(t, err)

	allowed, err := adapter.Allow(context.Background(), port.ReservationFact{Available: 5, Quantity: 3})
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = adapter.Allow(context.Background(), port.ReservationFact{Available: 5, Quantity: 4})
	require.NoError(t, err)
	assert.False(t, allowed)
}
