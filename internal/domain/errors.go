package domain

import "errors"

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Round / bet errors. Names and ordering match the wire-stable numeric codes
// documented in the external interface table.
var (
	// ErrInvalidCoinValue (code 0) — stake outside [min_value, max_value], or
	// a values set containing an out-of-range or duplicate entry.
	ErrInvalidCoinValue = errors.New("invalid coin value")

	// ErrRoundNotAvailable (code 1) — stake exceeds the round's remaining
	// total_amount budget.
	ErrRoundNotAvailable = errors.New("round not available: budget exhausted")

	// ErrInsufficientPool (code 2) — pool withdrawal would underflow, or a
	// round's seed liquidity cannot cover its configured maximum payout.
	ErrInsufficientPool = errors.New("insufficient pool balance")

	// ErrRoundClosed (code 3) — bet submitted after closing_time.
	ErrRoundClosed = errors.New("round is closed")

	// ErrAlreadyPlaced (code 4) — a player already has a bet on this round.
	ErrAlreadyPlaced = errors.New("player already placed a bet this round")

	// ErrRoundNotFinished (code 5) — finish called before closing_time has
	// elapsed.
	ErrRoundNotFinished = errors.New("round has not finished its betting window")

	// ErrInvalidRndLength (drand-0) — selector input shorter than 16 bytes.
	// Unreachable in practice since derive always returns 32 bytes; kept as
	// defense-in-depth.
	ErrInvalidRndLength = errors.New("randomness input shorter than 16 bytes")

	// ErrInvalidProof (drand-1) — BLS signature verification failed.
	ErrInvalidProof = errors.New("invalid beacon signature")
)

// Round lifecycle / admin errors not covered by the wire-stable table above.
var (
	// ErrRoundNotFound is returned when no round matches the requested id.
	ErrRoundNotFound = errors.New("round not found")

	// ErrRoundAlreadySettled is returned when finish is called twice.
	ErrRoundAlreadySettled = errors.New("round is already settled")

	// ErrInvalidRoundParams is returned when create/update parameters violate
	// a hard precondition (min_value > max_value, period_ms <= 0, wheel_size
	// too small to contain any playable number).
	ErrInvalidRoundParams = errors.New("invalid round parameters")
)

// Wallet errors — the off-chain token-balance collaborator.
var (
	// ErrWalletNotFound is returned when no wallet exists for the player.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInsufficientBalance is returned when a player's available balance is
	// too low to fund a stake.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
)

// Auth errors.
var (
	// ErrUnauthorized is returned when no valid admin credential is present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when a credential is valid but lacks the
	// required capability.
	ErrForbidden = errors.New("forbidden: insufficient permissions")

	// ErrTokenInvalid is returned when a JWT cannot be parsed or verified.
	ErrTokenInvalid = errors.New("token is invalid")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

var notFoundErrors = []error{
	ErrRoundNotFound,
	ErrWalletNotFound,
}

// IsNotFound returns true when err (or any error in its chain) is one of the
// domain "not found" sentinels.
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict returns true for errors representing a state conflict — a
// duplicate bet or a double-settlement attempt.
func IsConflict(err error) bool {
	conflictErrors := []error{ErrAlreadyPlaced, ErrRoundAlreadySettled}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsAuthError returns true for authentication/authorisation errors.
func IsAuthError(err error) bool {
	authErrors := []error{ErrUnauthorized, ErrForbidden, ErrTokenInvalid}
	for _, target := range authErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidationError returns true for the synchronous precondition failures
// that abort an operation atomically without mutating state (codes 0,1,3,4,5).
func IsValidationError(err error) bool {
	validationErrors := []error{
		ErrInvalidCoinValue,
		ErrRoundNotAvailable,
		ErrRoundClosed,
		ErrAlreadyPlaced,
		ErrRoundNotFinished,
		ErrInvalidRoundParams,
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
