package entity

// UnitStatus is the narrow state vocabulary of one execution unit.
type UnitStatus string

const (
	UnitStatusPending   UnitStatus = "pending"
	UnitStatusApproving UnitStatus = "approving"
	UnitStatusSwapping  UnitStatus = "swapping"
	UnitStatusBridging  UnitStatus = "bridging"
	UnitStatusDone      UnitStatus = "done"
	UnitStatusFailed    UnitStatus = "failed"
)

// Terminal reports whether the status ends a unit's state machine.
func (s UnitStatus) Terminal() bool {
	return s == UnitStatusDone || s == UnitStatusFailed
}

// DirectTransferIndex is the unit index of the settlement-chain direct transfer.
const DirectTransferIndex = -1

// DepositSource is a single cross-chain mobilization unit selected by the planner.
// It is consumed only by the executor and never persisted.
type DepositSource struct {
	ChainID          uint64  `json:"chainId"`
	NetworkName      string  `json:"networkName"`
	TokenSymbol      string  `json:"tokenSymbol"`
	AmountUSD        float64 `json:"amountUsd"`
	Route            *Route  `json:"-"`
	EstimatedSeconds int64   `json:"estimatedSeconds"`
	FeeUSD           float64 `json:"feeUsd"`
}

// DepositPlan is the planning output for one funding target.
//
// Invariants: ExistingSettlementUSD + ShortfallUSD == AmountUSD before dust
// rounding, MaxSpendableUSD <= AmountUSD, and Sources is empty whenever
// ShortfallUSD is zero.
type DepositPlan struct {
	AmountUSD             float64         `json:"amountUsd"`
	ExistingSettlementUSD float64         `json:"existingSettlementUsd"`
	ShortfallUSD          float64         `json:"shortfallUsd"`
	MaxSpendableUSD       float64         `json:"maxSpendableUsd"`
	CanCoverFull          bool            `json:"canCoverFull"`
	Sources               []DepositSource `json:"sources"`
}

// ExecutionUpdate is one progress event for one unit of work. UnitIndex is
// DirectTransferIndex for the settlement-chain transfer, otherwise an index
// into the plan's Sources. Delivered via callback, never persisted.
type ExecutionUpdate struct {
	UnitIndex int        `json:"unitIndex"`
	Status    UnitStatus `json:"status"`
	Detail    string     `json:"detail,omitempty"`
	TxHash    string     `json:"txHash,omitempty"`
	Err       string     `json:"error,omitempty"`
}
