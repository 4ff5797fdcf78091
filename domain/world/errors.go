package world

import "errors"

// Domain errors for world states.
var (
	// ErrInvalidState indicates a state that breaks the placement invariant:
	// every declared object is either held or in exactly one stack position.
	ErrInvalidState = errors.New("invalid world state")

	// ErrIllegalMove indicates an arm action whose precondition does not hold.
	ErrIllegalMove = errors.New("illegal move")

	// ErrUnknownAction indicates an action token outside l, r, p, d.
	ErrUnknownAction = errors.New("unknown action")
)
