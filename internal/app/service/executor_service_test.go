package service

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"chainfund/internal/domain/entity"
)

func newTestExecutor(rp *fakeRouteProvider) *executorServiceImpl {
	e := NewDepositExecutor(&fakeNetworkProvider{networks: testNetworks()}, rp, nopLogger{})
	return e.(*executorServiceImpl)
}

func sourceWithRoute(id string, chainID uint64, network, symbol string, amountUSD float64) entity.DepositSource {
	return entity.DepositSource{
		ChainID:     chainID,
		NetworkName: network,
		TokenSymbol: symbol,
		AmountUSD:   amountUSD,
		Route: &entity.Route{
			ID:          id,
			FromChainID: chainID,
			ToChainID:   8453,
			FromAmount:  big.NewInt(1_000_000),
		},
	}
}

func collectUpdates(t *testing.T, exec *executorServiceImpl, plan *entity.DepositPlan, signer *fakeSigner) []entity.ExecutionUpdate {
	t.Helper()
	var updates []entity.ExecutionUpdate
	err := exec.Execute(context.Background(), plan, signer, func(u entity.ExecutionUpdate) {
		updates = append(updates, u)
	}, testRecipient)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	return updates
}

func TestExecuteRequiresRecipient(t *testing.T) {
	exec := newTestExecutor(&fakeRouteProvider{})
	err := exec.Execute(context.Background(), &entity.DepositPlan{}, &fakeSigner{}, nil, "  ")
	if !errors.Is(err, entity.ErrMissingRecipient) {
		t.Fatalf("expected ErrMissingRecipient, got %v", err)
	}
}

func TestExecuteRequiresPlan(t *testing.T) {
	exec := newTestExecutor(&fakeRouteProvider{})
	if err := exec.Execute(context.Background(), nil, &fakeSigner{}, nil, testRecipient); err == nil {
		t.Fatal("expected an error for a nil plan")
	}
}

func TestExecuteDirectTransferRunsBeforeSources(t *testing.T) {
	rp := &fakeRouteProvider{}
	exec := newTestExecutor(rp)
	plan := &entity.DepositPlan{
		AmountUSD:             30,
		ExistingSettlementUSD: 10,
		Sources: []entity.DepositSource{
			sourceWithRoute("r0", 1, "Ethereum", "USDC", 20),
		},
	}

	updates := collectUpdates(t, exec, plan, &fakeSigner{})
	if len(updates) == 0 {
		t.Fatal("expected updates")
	}
	if updates[0].UnitIndex != entity.DirectTransferIndex {
		t.Fatalf("first update must be the direct transfer unit, got index %d", updates[0].UnitIndex)
	}
	sawSource := false
	for _, u := range updates {
		if u.UnitIndex == 0 {
			sawSource = true
		}
		if sawSource && u.UnitIndex == entity.DirectTransferIndex {
			t.Fatal("direct transfer update arrived after a source update")
		}
	}
	if last := lastStatus(updates, entity.DirectTransferIndex); last != entity.UnitStatusDone {
		t.Fatalf("direct transfer should finish done, got %s", last)
	}
}

func TestExecuteUnitsAreSequentialAndTerminal(t *testing.T) {
	rp := &fakeRouteProvider{
		progressFor: map[string][]entity.RouteProgress{
			"r0": {
				{Step: entity.RouteStepApprove, Phase: entity.RoutePhaseActionRequired},
				{Step: entity.RouteStepBridge, Phase: entity.RoutePhaseInFlight},
			},
			"r1": {
				{Step: entity.RouteStepSwap, Phase: entity.RoutePhaseInFlight},
			},
		},
	}
	exec := newTestExecutor(rp)
	plan := &entity.DepositPlan{
		AmountUSD: 50,
		Sources: []entity.DepositSource{
			sourceWithRoute("r0", 1, "Ethereum", "USDC", 30),
			sourceWithRoute("r1", 42161, "Arbitrum", "USDT", 20),
		},
	}

	updates := collectUpdates(t, exec, plan, &fakeSigner{})

	// Unit i must be terminal before unit i+1 emits anything.
	highest := -2
	for _, u := range updates {
		if u.UnitIndex > highest {
			if highest >= -1 && !lastStatus(updates[:indexOfFirst(updates, u.UnitIndex)], highest).Terminal() {
				t.Fatalf("unit %d started before unit %d was terminal", u.UnitIndex, highest)
			}
			highest = u.UnitIndex
		} else if u.UnitIndex < highest {
			t.Fatalf("update for unit %d interleaved after unit %d started", u.UnitIndex, highest)
		}
	}

	if got := rp.executeCalls; len(got) != 2 || got[0] != "r0" || got[1] != "r1" {
		t.Fatalf("routes must execute in plan order, got %v", got)
	}
	if lastStatus(updates, 0) != entity.UnitStatusDone || lastStatus(updates, 1) != entity.UnitStatusDone {
		t.Fatal("both units should finish done")
	}
}

func TestExecuteFailuresStayIsolated(t *testing.T) {
	rp := &fakeRouteProvider{
		failExecFor: map[string]error{"r0": errors.New("bridge reverted")},
	}
	exec := newTestExecutor(rp)
	plan := &entity.DepositPlan{
		AmountUSD:             40,
		ExistingSettlementUSD: 10,
		Sources: []entity.DepositSource{
			sourceWithRoute("r0", 1, "Ethereum", "USDC", 15),
			sourceWithRoute("r1", 42161, "Arbitrum", "USDC", 15),
		},
	}

	signer := &fakeSigner{sendErr: errors.New("nonce too low")}
	updates := collectUpdates(t, exec, plan, signer)

	if lastStatus(updates, entity.DirectTransferIndex) != entity.UnitStatusFailed {
		t.Fatal("direct transfer should fail when the broadcast fails")
	}
	if lastStatus(updates, 0) != entity.UnitStatusFailed {
		t.Fatal("unit 0 should fail when its route execution fails")
	}
	if lastStatus(updates, 1) != entity.UnitStatusDone {
		t.Fatal("unit 1 must still run to done after earlier failures")
	}
	for _, u := range updates {
		if u.UnitIndex == 0 && u.Status == entity.UnitStatusFailed && u.Err == "" {
			t.Fatal("failed unit update should carry the underlying error")
		}
	}
}

func TestExecuteCoalescesRepeatedProgress(t *testing.T) {
	poll := entity.RouteProgress{Step: entity.RouteStepBridge, Phase: entity.RoutePhaseInFlight, TxHash: "0xabc"}
	rp := &fakeRouteProvider{
		progressFor: map[string][]entity.RouteProgress{
			"r0": {poll, poll, poll},
		},
	}
	exec := newTestExecutor(rp)
	plan := &entity.DepositPlan{
		AmountUSD: 20,
		Sources:   []entity.DepositSource{sourceWithRoute("r0", 1, "Ethereum", "USDC", 20)},
	}

	updates := collectUpdates(t, exec, plan, &fakeSigner{})

	bridging := 0
	for _, u := range updates {
		if u.Status == entity.UnitStatusBridging {
			bridging++
		}
	}
	if bridging != 1 {
		t.Fatalf("identical polled events must collapse to one update, got %d", bridging)
	}
}

func TestExecuteIgnoresTerminalStepPhases(t *testing.T) {
	rp := &fakeRouteProvider{
		progressFor: map[string][]entity.RouteProgress{
			"r0": {
				{Step: entity.RouteStepSwap, Phase: entity.RoutePhaseInFlight},
				{Step: entity.RouteStepSwap, Phase: entity.RoutePhaseDone},
			},
		},
	}
	exec := newTestExecutor(rp)
	plan := &entity.DepositPlan{
		AmountUSD: 20,
		Sources:   []entity.DepositSource{sourceWithRoute("r0", 1, "Ethereum", "USDC", 20)},
	}

	updates := collectUpdates(t, exec, plan, &fakeSigner{})

	// A finished swap leg must not finish the unit; the unit's single done
	// update comes from route completion.
	done := 0
	for _, u := range updates {
		if u.Status == entity.UnitStatusDone {
			done++
		}
	}
	if done != 1 {
		t.Fatalf("expected exactly one done update, got %d", done)
	}
}

func TestExecuteSkipsDirectTransferWithoutSettlementBalance(t *testing.T) {
	rp := &fakeRouteProvider{}
	exec := newTestExecutor(rp)
	plan := &entity.DepositPlan{
		AmountUSD: 20,
		Sources:   []entity.DepositSource{sourceWithRoute("r0", 1, "Ethereum", "USDC", 20)},
	}

	signer := &fakeSigner{}
	updates := collectUpdates(t, exec, plan, signer)

	for _, u := range updates {
		if u.UnitIndex == entity.DirectTransferIndex {
			t.Fatal("no direct transfer unit expected without a settlement balance")
		}
	}
	if len(signer.sends) != 0 {
		t.Fatalf("no direct transfer should be broadcast, saw %d sends", len(signer.sends))
	}
}

// lastStatus returns the final status emitted for a unit.
func lastStatus(updates []entity.ExecutionUpdate, unitIndex int) entity.UnitStatus {
	var last entity.UnitStatus
	for _, u := range updates {
		if u.UnitIndex == unitIndex {
			last = u.Status
		}
	}
	return last
}

func indexOfFirst(updates []entity.ExecutionUpdate, unitIndex int) int {
	for i, u := range updates {
		if u.UnitIndex == unitIndex {
			return i
		}
	}
	return len(updates)
}
