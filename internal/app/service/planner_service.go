package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"chainfund/internal/app/port"
	"chainfund/internal/domain/entity"
	"chainfund/internal/pkg/metrics"
	"chainfund/internal/pkg/utils"

	"golang.org/x/sync/errgroup"
)

// plannerServiceImpl implements port.DepositPlanner.
//
// Candidate ordering is stable-first then largest-first. This optimizes for
// coverage with few swap legs and predictable-value assets, not for lowest
// aggregate fees; the ordering is observable plan output and must stay as is.
type plannerServiceImpl struct {
	networkProvider    port.NetworkDefinitionProvider
	routeProvider      port.RouteProvider
	logger             port.Logger
	dustThresholdUSD   float64
	epsilonUSD         float64
	routeLookupTimeout time.Duration
}

// NewDepositPlanner creates a new instance of plannerServiceImpl.
func NewDepositPlanner(
	np port.NetworkDefinitionProvider,
	rp port.RouteProvider,
	l port.Logger,
	dustThresholdUSD float64,
	epsilonUSD float64,
	routeLookupTimeout time.Duration,
) port.DepositPlanner {
	return &plannerServiceImpl{
		networkProvider:    np,
		routeProvider:      rp,
		logger:             l,
		dustThresholdUSD:   dustThresholdUSD,
		epsilonUSD:         epsilonUSD,
		routeLookupTimeout: routeLookupTimeout,
	}
}

// selection pairs a candidate balance with the USD slice taken from it.
type selection struct {
	balance  entity.ChainBalance
	usdToUse float64
}

// Plan converts a funding target and a balance snapshot into a deposit plan.
// Route lookup failures degrade the plan numerically; only invalid input and
// missing configuration raise errors.
func (s *plannerServiceImpl) Plan(
	ctx context.Context,
	amountUSD float64,
	balances []entity.ChainBalance,
	fromAddress, toAddress string,
) (*entity.DepositPlan, error) {
	if amountUSD <= 0 {
		return nil, entity.ErrInvalidAmount
	}
	if strings.TrimSpace(fromAddress) == "" {
		return nil, entity.ErrMissingHolder
	}
	if strings.TrimSpace(toAddress) == "" {
		return nil, entity.ErrMissingRecipient
	}

	settlement, ok := s.networkProvider.GetSettlementNetwork()
	if !ok {
		return nil, entity.ErrNoSettlementNetwork
	}
	settleToken, ok := settlement.SettlementToken()
	if !ok {
		return nil, entity.ErrNoSettlementToken
	}

	existing := s.settlementBalanceUSD(balances, settlement, settleToken)
	if existing > amountUSD {
		existing = amountUSD
	}

	plan := &entity.DepositPlan{
		AmountUSD:             amountUSD,
		ExistingSettlementUSD: existing,
		ShortfallUSD:          amountUSD - existing,
		Sources:               []entity.DepositSource{},
	}

	// Full coverage on the settlement chain short-circuits before any routing
	// lookups; the oracle must see zero calls in this case.
	if plan.ShortfallUSD <= 0 {
		plan.ShortfallUSD = 0
		plan.MaxSpendableUSD = amountUSD
		plan.CanCoverFull = true
		metrics.PlansTotal.Inc()
		s.logger.Info("Deposit covered entirely by settlement chain",
			"amount_usd", amountUSD, "existing_usd", existing)
		return plan, nil
	}

	selections := s.selectCandidates(balances, settlement.ChainID, plan.ShortfallUSD)
	s.logger.Debug("Selected shortfall candidates",
		"shortfall_usd", plan.ShortfallUSD, "candidates", len(selections))

	sources := s.resolveRoutes(ctx, selections, settlement, settleToken, fromAddress, toAddress)

	coveredUSD := 0.0
	for _, src := range sources {
		plan.Sources = append(plan.Sources, src)
		coveredUSD += src.AmountUSD
	}

	plan.MaxSpendableUSD = existing + coveredUSD
	plan.CanCoverFull = plan.MaxSpendableUSD >= amountUSD-s.epsilonUSD

	metrics.PlansTotal.Inc()
	s.logger.Info("Deposit plan built",
		"amount_usd", amountUSD,
		"existing_usd", existing,
		"shortfall_usd", plan.ShortfallUSD,
		"max_spendable_usd", plan.MaxSpendableUSD,
		"sources", len(plan.Sources),
		"can_cover_full", plan.CanCoverFull)
	return plan, nil
}

// settlementBalanceUSD sums the holder's settlement-chain balance of the
// settlement stablecoin.
func (s *plannerServiceImpl) settlementBalanceUSD(balances []entity.ChainBalance, settlement entity.NetworkDefinition, settleToken entity.TokenInfo) float64 {
	total := 0.0
	for _, b := range balances {
		if b.ChainID == settlement.ChainID && strings.EqualFold(b.TokenAddress, settleToken.Address) {
			total += b.ValueUSD
		}
	}
	return total
}

// selectCandidates filters, orders and greedily walks the non-settlement
// balances until the shortfall is covered or candidates run out.
func (s *plannerServiceImpl) selectCandidates(balances []entity.ChainBalance, settlementChainID uint64, shortfallUSD float64) []selection {
	candidates := make([]entity.ChainBalance, 0, len(balances))
	for _, b := range balances {
		if b.ChainID == settlementChainID {
			continue
		}
		if b.ValueUSD < s.dustThresholdUSD {
			continue
		}
		candidates = append(candidates, b)
	}

	// Stable-pegged before volatile, then largest USD value within a rank.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].StableRank != candidates[j].StableRank {
			return candidates[i].StableRank < candidates[j].StableRank
		}
		return candidates[i].ValueUSD > candidates[j].ValueUSD
	})

	remaining := shortfallUSD
	selections := make([]selection, 0, len(candidates))
	for _, c := range candidates {
		if remaining <= s.epsilonUSD {
			break
		}
		use := c.ValueUSD
		if use > remaining {
			use = remaining
		}
		remaining -= use
		selections = append(selections, selection{balance: c, usdToUse: use})
	}
	return selections
}

// resolveRoutes queries the routing provider for every selection
// concurrently. Lookups are independent: each failure only removes its own
// candidate from the plan, and all lookups settle before this returns.
func (s *plannerServiceImpl) resolveRoutes(
	ctx context.Context,
	selections []selection,
	settlement entity.NetworkDefinition,
	settleToken entity.TokenInfo,
	fromAddress, toAddress string,
) []entity.DepositSource {
	resolved := make([]*entity.DepositSource, len(selections))

	var g errgroup.Group
	for i, sel := range selections {
		i, sel := i, sel
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(ctx, s.routeLookupTimeout)
			defer cancel()

			amountRaw := utils.PortionOfAmount(sel.balance.Amount, sel.usdToUse, sel.balance.ValueUSD)
			if amountRaw.Sign() == 0 {
				s.logger.Warn("Candidate resolved to a zero token amount, skipping",
					"network", sel.balance.NetworkName, "token", sel.balance.TokenSymbol)
				return nil
			}

			metrics.RouteLookupsTotal.Inc()
			route, err := s.routeProvider.GetRoutes(lookupCtx, entity.RouteQuery{
				FromChainID:      sel.balance.ChainID,
				FromTokenAddress: sel.balance.TokenAddress,
				FromAddress:      fromAddress,
				ToChainID:        settlement.ChainID,
				ToTokenAddress:   settleToken.Address,
				ToAddress:        toAddress,
				Amount:           amountRaw,
			})
			if err != nil {
				metrics.RouteLookupFailuresTotal.Inc()
				if errors.Is(err, entity.ErrRouteUnavailable) {
					s.logger.Warn("No route for candidate, excluding from plan",
						"network", sel.balance.NetworkName, "token", sel.balance.TokenSymbol)
				} else {
					s.logger.Warn("Route lookup failed, excluding candidate from plan",
						"network", sel.balance.NetworkName, "token", sel.balance.TokenSymbol, "error", err)
				}
				return nil
			}

			resolved[i] = &entity.DepositSource{
				ChainID:          sel.balance.ChainID,
				NetworkName:      sel.balance.NetworkName,
				TokenSymbol:      sel.balance.TokenSymbol,
				AmountUSD:        sel.usdToUse,
				Route:            route,
				EstimatedSeconds: route.EstimatedSeconds,
				FeeUSD:           route.FeeUSD,
			}
			return nil
		})
	}
	// All-settled join: goroutines report failures by leaving their slot nil.
	_ = g.Wait()

	sources := make([]entity.DepositSource, 0, len(selections))
	for _, src := range resolved {
		if src != nil {
			sources = append(sources, *src)
		}
	}
	return sources
}
