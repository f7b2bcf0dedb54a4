package orders

import (
	"fmt"

	"github.com/havenandoak/storefront-backend/pkg/enums"
	pkgerrors "github.com/havenandoak/storefront-backend/pkg/errors"
)

// transitions is the single source of truth for legal status moves. Every
// mutating entry point consults this table; no handler carries its own
// inline guard.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending: {
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusConfirmed: {
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusProcessing: {
		enums.OrderStatusShipped,
		enums.OrderStatusOutForDelivery,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusShipped: {
		enums.OrderStatusOutForDelivery,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusOutForDelivery: {
		enums.OrderStatusDelivered,
		enums.OrderStatusCODCollected,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusDelivered:    {},
	enums.OrderStatusCODCollected: {},
	enums.OrderStatusCancelled:    {},
}

// shipPreStates are the only statuses from which the dedicated ship action
// may fire. An order that is already processing or further along is in the
// delivery phase and must not be shipped again.
var shipPreStates = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusConfirmed,
}

// inFlightStates are delete-protected: the order is physically moving.
var inFlightStates = []enums.OrderStatus{
	enums.OrderStatusProcessing,
	enums.OrderStatusShipped,
	enums.OrderStatusOutForDelivery,
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// EnsureTransition returns a state-conflict error when the move is illegal.
func EnsureTransition(from, to enums.OrderStatus) error {
	if !from.IsValid() || !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", pickInvalid(from, to)))
	}
	if !CanTransition(from, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from, to))
	}
	return nil
}

// CanShip reports whether the ship action may fire from the given status.
func CanShip(from enums.OrderStatus) bool {
	for _, allowed := range shipPreStates {
		if from == allowed {
			return true
		}
	}
	return false
}

// IsInFlight reports whether the status protects the order from deletion.
func IsInFlight(status enums.OrderStatus) bool {
	for _, s := range inFlightStates {
		if status == s {
			return true
		}
	}
	return false
}

func pickInvalid(from, to enums.OrderStatus) enums.OrderStatus {
	if !from.IsValid() {
		return from
	}
	return to
}
