package entity

import "errors"

// Fatal configuration errors. These are raised before any work is attempted.
var (
	// ErrInvalidAmount rejects non-positive deposit targets.
	ErrInvalidAmount = errors.New("deposit amount must be positive")
	// ErrMissingRecipient rejects execution without a configured recipient address.
	ErrMissingRecipient = errors.New("recipient address is required")
	// ErrMissingHolder rejects scans/plans without a holder address.
	ErrMissingHolder = errors.New("holder address is required")
	// ErrNoSettlementNetwork means the registry defines no settlement chain.
	ErrNoSettlementNetwork = errors.New("no settlement network configured")
	// ErrNoSettlementToken means the settlement chain has no primary stablecoin.
	ErrNoSettlementToken = errors.New("settlement network has no primary stablecoin configured")
)

// Non-fatal, per-candidate errors. These degrade a plan instead of failing it.
var (
	// ErrRouteUnavailable means the routing provider found no path for a candidate.
	ErrRouteUnavailable = errors.New("no route available")
)
