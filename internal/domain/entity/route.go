package entity

import "math/big"

// Route step types as reported by the routing provider. The orchestrator maps
// these onto the narrow unit-status vocabulary before surfacing them.
const (
	RouteStepApprove = "approve" // token allowance approval on the source chain
	RouteStepPermit  = "permit"  // gasless permit signature
	RouteStepSwap    = "swap"    // same-chain conversion
	RouteStepBridge  = "bridge"  // cross-chain message/transfer in flight
	RouteStepReceive = "receive" // destination-chain settlement
)

// Route phases reported alongside a step while it is being driven.
const (
	RoutePhasePending        = "pending"
	RoutePhaseActionRequired = "action_required" // awaiting a wallet signature
	RoutePhaseInFlight       = "in_flight"
	RoutePhaseDone           = "done"
	RoutePhaseFailed         = "failed"
)

// TxRequest is a prepared, unsigned transaction a signer can broadcast.
type TxRequest struct {
	ChainID  uint64
	To       string
	Data     []byte
	Value    *big.Int
	GasLimit uint64 // 0 means estimate before sending
}

// RouteStep is one provider-specific leg of a bridge route.
type RouteStep struct {
	Type string
	Tool string // the bridge/DEX carrying this leg, e.g. "stargate"
	Tx   TxRequest
}

// Route is an opaque, executable route handle quoted by the routing provider.
// The planner treats it as a token to hand back for execution; only the
// routing provider interprets its steps.
type Route struct {
	ID               string
	FromChainID      uint64
	ToChainID        uint64
	FromTokenAddress string
	ToTokenAddress   string
	FromAddress      string
	ToAddress        string
	FromAmount       *big.Int
	EstimatedSeconds int64
	FeeUSD           float64
	Steps            []RouteStep
}

// RouteQuery describes a requested movement of value between chains/tokens.
type RouteQuery struct {
	FromChainID      uint64
	FromTokenAddress string
	FromAddress      string
	ToChainID        uint64
	ToTokenAddress   string
	ToAddress        string
	Amount           *big.Int
}

// RouteProgress is one raw progress event from the routing provider while a
// route executes. Repeated identical events are expected (status polling) and
// must be coalesced by the consumer.
type RouteProgress struct {
	Step   string // one of the RouteStep* constants
	Phase  string // one of the RoutePhase* constants
	TxHash string
	Err    error
}
