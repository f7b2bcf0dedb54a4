package orders

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/havenandoak/storefront-backend/pkg/enums"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to enums.OrderStatus
		allowed  bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusConfirmed, true},
		{enums.OrderStatusPending, enums.OrderStatusShipped, true},
		{enums.OrderStatusPending, enums.OrderStatusDelivered, false},
		{enums.OrderStatusConfirmed, enums.OrderStatusProcessing, true},
		{enums.OrderStatusConfirmed, enums.OrderStatusPending, false},
		{enums.OrderStatusProcessing, enums.OrderStatusOutForDelivery, true},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered, true},
		{enums.OrderStatusOutForDelivery, enums.OrderStatusCODCollected, true},
		{enums.OrderStatusOutForDelivery, enums.OrderStatusShipped, false},
		{enums.OrderStatusDelivered, enums.OrderStatusCancelled, false},
		{enums.OrderStatusCODCollected, enums.OrderStatusDelivered, false},
		{enums.OrderStatusCancelled, enums.OrderStatusPending, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.allowed, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestEveryStatusCanCancelUnlessTerminal(t *testing.T) {
	for from := range transitions {
		switch from {
		case enums.OrderStatusDelivered, enums.OrderStatusCODCollected, enums.OrderStatusCancelled:
			require.False(t, CanTransition(from, enums.OrderStatusCancelled), "terminal %s", from)
		default:
			require.True(t, CanTransition(from, enums.OrderStatusCancelled), "%s should cancel", from)
		}
	}
}

func TestEnsureTransitionErrors(t *testing.T) {
	err := EnsureTransition(enums.OrderStatusDelivered, enums.OrderStatusShipped)
	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, pkgerrors.CodeStateConflict, domainErr.Code())

	err = EnsureTransition(enums.OrderStatus("bogus"), enums.OrderStatusShipped)
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, pkgerrors.CodeValidation, domainErr.Code())

	require.NoError(t, EnsureTransition(enums.OrderStatusPending, enums.OrderStatusConfirmed))
}

func TestShipAndDeleteGuards(t *testing.T) {
	require.True(t, CanShip(enums.OrderStatusPending))
	require.True(t, CanShip(enums.OrderStatusConfirmed))
	require.False(t, CanShip(enums.OrderStatusProcessing))
	require.False(t, CanShip(enums.OrderStatusShipped))

	require.True(t, IsInFlight(enums.OrderStatusProcessing))
	require.True(t, IsInFlight(enums.OrderStatusShipped))
	require.True(t, IsInFlight(enums.OrderStatusOutForDelivery))
	require.False(t, IsInFlight(enums.OrderStatusPending))
	require.False(t, IsInFlight(enums.OrderStatusDelivered))
}
