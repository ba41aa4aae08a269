// internal/service/inventory/domain/reservation_test.go
package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReservation(t *testing.T) *Reservation {
	t.Helper()
	r, err := NewReservation(1, "customer-42", 2, 30*time.Minute)
	require.NoError(t, err)
	return r
}

func TestNewReservation(t *testing.T) {
	r := newTestReservation(t)

	assert.Equal(t, StatusActive, r.Status)
	assert.NotEmpty(t, r.Reference)
	assert.True(t, r.ExpiresAt.After(time.Now()))
}

func TestNewReservation_Validation(t *testing.T) {
	_, err := NewReservation(1, "", 2, time.Minute)
	assert.ErrorIs(t, err, ErrCustomerRequired)

	_, err = NewReservation(1, "customer-42", 0, time.Minute)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestReservation_Transitions(t *testing.T) {
	tests := []struct {
		name       string
		transition func(r *Reservation) error
		want       Status
	}{
		{"cancel", (*Reservation).Cancel, StatusCancelled},
		{"confirm", (*Reservation).Confirm, StatusConfirmed},
		{"expire", (*Reservation).MarkExpired, StatusExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReservation(t)

			require.NoError(t, tt.transition(r))
			assert.Equal(t, tt.want, r.Status)
			assert.False(t, r.IsActive())

			// 终态不可再流转，包括重复执行同一个流转
			assert.ErrorIs(t, tt.transition(r), ErrReservationNotActive)
			assert.ErrorIs(t, r.Cancel(), ErrReservationNotActive)
			assert.ErrorIs(t, r.Confirm(), ErrReservationNotActive)
			assert.ErrorIs(t, r.MarkExpired(), ErrReservationNotActive)
			assert.Equal(t, tt.want, r.Status)
		})
	}
}

func TestReservation_IsOverdue(t *testing.T) {
	r := newTestReservation(t)

	assert.False(t, r.IsOverdue(time.Now()))
	assert.True(t, r.IsOverdue(r.ExpiresAt.Add(time.Second)))
	// 恰好在到期时刻还不算超期
	assert.False(t, r.IsOverdue(r.ExpiresAt))
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusActive.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
	assert.True(t, StatusConfirmed.IsTerminal())
}
