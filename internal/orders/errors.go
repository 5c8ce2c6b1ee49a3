package orders

import "errors"

var (
	// ErrEmptyCart is returned when checkout is attempted on an empty
	// cart. Nothing is persisted in that case.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrInvalidPaymentMethod is returned when the payment label is not
	// in the accepted set.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrInvalidOrderKind is returned when the order kind is not in the
	// accepted set.
	ErrInvalidOrderKind = errors.New("invalid order kind")

	// ErrOrderNotFound is returned when the order does not exist or does
	// not belong to the requesting actor.
	ErrOrderNotFound = errors.New("order not found")

	// ErrIllegalTransition is returned when the requested status is not
	// reachable from the order's current status, including when a
	// concurrent transition won the race first.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrNotCancellable is returned when cancellation is requested after
	// the order has left the placed state.
	ErrNotCancellable = errors.New("order can no longer be cancelled")
)
