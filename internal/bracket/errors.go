package bracket

import "errors"

var (
	// ErrInvalidOperation marks state-machine misuse the caller can recover
	// from: a setter on a frozen field, a transition attempted from the
	// wrong state, or a winner that is not part of the game.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrInvariant marks corrupted state: a bracket promise that the
	// structural validator should have guaranteed no longer holds.
	ErrInvariant = errors.New("invariant violation")

	// ErrValidation is returned by Tournament.TryStart when the bracket
	// graph fails the structural checks.
	ErrValidation = errors.New("structural validation failed")

	// ErrNotFound reports an absent set, entrant, game or data key. It is
	// distinct from ErrInvalidOperation so callers can tell "didn't exist"
	// from "operation declined".
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID reports an insert with an id that is already taken.
	ErrDuplicateID = errors.New("duplicate id")
)
