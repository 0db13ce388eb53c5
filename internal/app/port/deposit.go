package port

import (
	"context"

	"chainfund/internal/domain/entity"
)

// BalanceScanner produces a USD-valued balance snapshot for a holder across
// every configured (chain, token) pair. Individual query failures resolve to
// zero balances; the scan itself only fails on invalid input.
type BalanceScanner interface {
	Scan(ctx context.Context, holderAddress string) ([]entity.ChainBalance, error)
}

// DepositPlanner converts a funding target and a balance snapshot into an
// executable, bounded deposit plan.
type DepositPlanner interface {
	Plan(ctx context.Context, amountUSD float64, balances []entity.ChainBalance, fromAddress, toAddress string) (*entity.DepositPlan, error)
}

// UpdateFunc receives one coalesced progress event per meaningful unit
// transition during execution.
type UpdateFunc func(entity.ExecutionUpdate)

// DepositExecutor materializes a deposit plan as on-chain transfers. It
// resolves once every unit is terminal and returns an error only for fatal
// configuration problems, never for a single unit's failure.
type DepositExecutor interface {
	Execute(ctx context.Context, plan *entity.DepositPlan, signer Signer, onUpdate UpdateFunc, recipientAddress string) error
}
