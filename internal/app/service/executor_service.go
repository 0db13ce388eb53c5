package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"chainfund/internal/app/port"
	"chainfund/internal/domain/entity"
	"chainfund/internal/pkg/metrics"
	"chainfund/internal/pkg/utils"

	"github.com/google/uuid"
)

// executorServiceImpl implements port.DepositExecutor.
//
// Cross-chain units run strictly sequentially: the signer's active-chain
// binding is shared mutable state, and unit i+1 must not start until unit i
// is terminal. Broadcast transactions cannot be cancelled; a cancelled
// context only stops driving units that have not started.
type executorServiceImpl struct {
	networkProvider port.NetworkDefinitionProvider
	routeProvider   port.RouteProvider
	logger          port.Logger
}

// NewDepositExecutor creates a new instance of executorServiceImpl.
func NewDepositExecutor(np port.NetworkDefinitionProvider, rp port.RouteProvider, l port.Logger) port.DepositExecutor {
	return &executorServiceImpl{
		networkProvider: np,
		routeProvider:   rp,
		logger:          l,
	}
}

// Execute materializes the plan: the direct settlement-chain transfer first
// (when present), then every cross-chain source in order. It returns once
// every unit is terminal; per-unit failures are reported through onUpdate,
// never as a returned error.
func (s *executorServiceImpl) Execute(
	ctx context.Context,
	plan *entity.DepositPlan,
	signer port.Signer,
	onUpdate port.UpdateFunc,
	recipientAddress string,
) error {
	if plan == nil {
		return fmt.Errorf("deposit plan is required")
	}
	if strings.TrimSpace(recipientAddress) == "" {
		return entity.ErrMissingRecipient
	}
	settlement, ok := s.networkProvider.GetSettlementNetwork()
	if !ok {
		return entity.ErrNoSettlementNetwork
	}
	settleToken, ok := settlement.SettlementToken()
	if !ok {
		return entity.ErrNoSettlementToken
	}

	runID := uuid.NewString()
	em := newUnitEmitter(onUpdate, s.logger, runID)
	s.logger.Info("Starting deposit execution",
		"run_id", runID,
		"existing_usd", plan.ExistingSettlementUSD,
		"sources", len(plan.Sources),
		"recipient", recipientAddress)

	if plan.ExistingSettlementUSD > 0 {
		s.runDirectTransfer(ctx, plan, signer, em, settlement, settleToken, recipientAddress)
	}

	for i := range plan.Sources {
		s.runSource(ctx, i, plan.Sources[i], signer, em)
	}

	s.logger.Info("Deposit execution finished", "run_id", runID)
	return nil
}

// runDirectTransfer sends the settlement stablecoin already held on the
// settlement chain straight to the recipient. Its failure is isolated: the
// cross-chain sources still run.
func (s *executorServiceImpl) runDirectTransfer(
	ctx context.Context,
	plan *entity.DepositPlan,
	signer port.Signer,
	em *unitEmitter,
	settlement entity.NetworkDefinition,
	settleToken entity.TokenInfo,
	recipientAddress string,
) {
	idx := entity.DirectTransferIndex
	em.emit(entity.ExecutionUpdate{
		UnitIndex: idx,
		Status:    entity.UnitStatusPending,
		Detail:    fmt.Sprintf("direct %s transfer on %s", settleToken.Symbol, settlement.Name),
	})

	// Network switching is best-effort: a signer already on the settlement
	// chain, or one that cannot switch, should not fail the transfer.
	if err := signer.SwitchChain(ctx, settlement.ChainID); err != nil {
		s.logger.Warn("Could not switch signer to settlement chain, continuing",
			"network", settlement.Name, "error", err)
	}

	amountRaw, err := utils.AmountForUSD(plan.ExistingSettlementUSD, settleToken.Decimals, 1.0)
	if err != nil {
		em.emit(entity.ExecutionUpdate{
			UnitIndex: idx,
			Status:    entity.UnitStatusFailed,
			Detail:    "failed to size direct transfer",
			Err:       err.Error(),
		})
		return
	}

	em.emit(entity.ExecutionUpdate{
		UnitIndex: idx,
		Status:    entity.UnitStatusApproving,
		Detail:    "awaiting transfer signature",
	})

	txHash, err := signer.SendTransaction(ctx, entity.TxRequest{
		ChainID: settlement.ChainID,
		To:      settleToken.Address,
		Data:    utils.ERC20TransferCalldata(recipientAddress, amountRaw),
	})
	if err != nil {
		em.emit(entity.ExecutionUpdate{
			UnitIndex: idx,
			Status:    entity.UnitStatusFailed,
			Detail:    "direct transfer broadcast failed",
			Err:       err.Error(),
		})
		return
	}

	em.emit(entity.ExecutionUpdate{
		UnitIndex: idx,
		Status:    entity.UnitStatusDone,
		Detail:    fmt.Sprintf("sent %.2f %s", plan.ExistingSettlementUSD, settleToken.Symbol),
		TxHash:    txHash,
	})
}

// runSource drives one cross-chain source to a terminal state. The routing
// provider's raw progress stream is mapped onto the unit-status vocabulary
// and coalesced before surfacing.
func (s *executorServiceImpl) runSource(
	ctx context.Context,
	index int,
	source entity.DepositSource,
	signer port.Signer,
	em *unitEmitter,
) {
	em.emit(entity.ExecutionUpdate{
		UnitIndex: index,
		Status:    entity.UnitStatusPending,
		Detail:    fmt.Sprintf("moving %.2f USD of %s from %s", source.AmountUSD, source.TokenSymbol, source.NetworkName),
	})

	if source.Route == nil {
		em.emit(entity.ExecutionUpdate{
			UnitIndex: index,
			Status:    entity.UnitStatusFailed,
			Detail:    "source carries no executable route",
		})
		return
	}

	if err := signer.SwitchChain(ctx, source.ChainID); err != nil {
		s.logger.Warn("Could not switch signer to source chain, continuing",
			"network", source.NetworkName, "error", err)
	}

	hook := func(p entity.RouteProgress) {
		status, ok := unitStatusForStep(p)
		if !ok {
			return
		}
		em.emit(entity.ExecutionUpdate{
			UnitIndex: index,
			Status:    status,
			Detail:    stepDetail(p),
			TxHash:    p.TxHash,
		})
	}

	if err := s.routeProvider.ExecuteRoute(ctx, source.Route, signer, hook); err != nil {
		em.emit(entity.ExecutionUpdate{
			UnitIndex: index,
			Status:    entity.UnitStatusFailed,
			Detail:    "route execution failed",
			Err:       err.Error(),
		})
		return
	}

	em.emit(entity.ExecutionUpdate{
		UnitIndex: index,
		Status:    entity.UnitStatusDone,
		Detail:    fmt.Sprintf("%s arrived on settlement chain", source.TokenSymbol),
	})
}

// unitStatusForStep maps provider step vocabulary onto the narrow unit
// status enum. Terminal phases are handled by the caller, not per step: a
// finished swap leg does not finish the unit.
func unitStatusForStep(p entity.RouteProgress) (entity.UnitStatus, bool) {
	if p.Phase == entity.RoutePhaseFailed || p.Phase == entity.RoutePhaseDone {
		return "", false
	}
	switch p.Step {
	case entity.RouteStepApprove, entity.RouteStepPermit:
		return entity.UnitStatusApproving, true
	case entity.RouteStepSwap:
		return entity.UnitStatusSwapping, true
	case entity.RouteStepBridge, entity.RouteStepReceive:
		return entity.UnitStatusBridging, true
	default:
		return entity.UnitStatusBridging, true
	}
}

func stepDetail(p entity.RouteProgress) string {
	switch p.Phase {
	case entity.RoutePhaseActionRequired:
		return fmt.Sprintf("%s: awaiting wallet action", p.Step)
	case entity.RoutePhaseInFlight:
		return fmt.Sprintf("%s: in flight", p.Step)
	default:
		return p.Step
	}
}

// unitEmitter serializes and coalesces progress updates. Repeated identical
// events (typically provider status polling) are collapsed, and nothing is
// emitted for a unit after it reached a terminal status.
type unitEmitter struct {
	onUpdate port.UpdateFunc
	logger   port.Logger
	runID    string

	mu       sync.Mutex
	last     map[int]entity.ExecutionUpdate
	terminal map[int]bool
}

func newUnitEmitter(onUpdate port.UpdateFunc, logger port.Logger, runID string) *unitEmitter {
	if onUpdate == nil {
		onUpdate = func(entity.ExecutionUpdate) {}
	}
	return &unitEmitter{
		onUpdate: onUpdate,
		logger:   logger,
		runID:    runID,
		last:     make(map[int]entity.ExecutionUpdate),
		terminal: make(map[int]bool),
	}
}

func (e *unitEmitter) emit(u entity.ExecutionUpdate) {
	e.mu.Lock()
	if e.terminal[u.UnitIndex] {
		e.mu.Unlock()
		return
	}
	if prev, seen := e.last[u.UnitIndex]; seen &&
		prev.Status == u.Status && prev.Detail == u.Detail && prev.TxHash == u.TxHash {
		e.mu.Unlock()
		return
	}
	e.last[u.UnitIndex] = u
	if u.Status.Terminal() {
		e.terminal[u.UnitIndex] = true
		metrics.ExecutionUnitsTotal.WithLabelValues(string(u.Status)).Inc()
	}
	e.mu.Unlock()

	e.logger.Debug("Execution update",
		"run_id", e.runID, "unit", u.UnitIndex, "status", string(u.Status),
		"detail", u.Detail, "tx_hash", u.TxHash, "error", u.Err)
	e.onUpdate(u)
}
