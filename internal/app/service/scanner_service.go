package service

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"chainfund/internal/app/port"
	"chainfund/internal/domain/entity"
	"chainfund/internal/pkg/metrics"
	"chainfund/internal/pkg/utils"

	"golang.org/x/sync/errgroup"
)

// scannerServiceImpl implements port.BalanceScanner.
type scannerServiceImpl struct {
	networkProvider       port.NetworkDefinitionProvider
	clientProvider        port.BlockchainClientProvider
	priceSvc              port.NativePriceService
	logger                port.Logger
	maxConcurrentRoutines int
}

// NewBalanceScanner creates a new instance of scannerServiceImpl.
func NewBalanceScanner(
	np port.NetworkDefinitionProvider,
	cp port.BlockchainClientProvider,
	ps port.NativePriceService,
	l port.Logger,
	maxRoutines int,
) port.BalanceScanner {
	if maxRoutines <= 0 {
		maxRoutines = 1
	}
	return &scannerServiceImpl{
		networkProvider:       np,
		clientProvider:        cp,
		priceSvc:              ps,
		logger:                l,
		maxConcurrentRoutines: maxRoutines,
	}
}

// Scan fetches every configured (chain, token) balance for the holder and
// values it in USD. Individual query failures resolve to zero balances; the
// scan completes once every pair has settled.
func (s *scannerServiceImpl) Scan(ctx context.Context, holderAddress string) ([]entity.ChainBalance, error) {
	if strings.TrimSpace(holderAddress) == "" {
		return nil, entity.ErrMissingHolder
	}

	start := time.Now()
	networks := s.networkProvider.GetAllNetworkDefinitions()
	s.logger.Debug("Scanning balances", "holder", holderAddress, "networks", len(networks))

	var mu sync.Mutex
	all := make([]entity.ChainBalance, 0, len(networks)*2)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrentRoutines)
	for _, netDef := range networks {
		nd := netDef
		g.Go(func() error {
			balances := s.scanNetwork(gctx, holderAddress, nd)
			mu.Lock()
			all = append(all, balances...)
			mu.Unlock()
			return nil
		})
	}
	// Goroutines never return errors; failures degrade individual balances.
	_ = g.Wait()

	// Descending USD value is a convenience for downstream consumers.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ValueUSD > all[j].ValueUSD
	})

	metrics.ScansTotal.Inc()
	metrics.ScanDurationSeconds.Observe(time.Since(start).Seconds())
	s.logger.Info("Balance scan complete",
		"holder", holderAddress, "pairs", len(all), "elapsed", time.Since(start).String())
	return all, nil
}

// scanNetwork resolves every tracked pair on one network. Any failure, from
// dialing to a single sub-request, yields zero-valued entries for the pairs
// it affects.
func (s *scannerServiceImpl) scanNetwork(ctx context.Context, holderAddress string, netDef entity.NetworkDefinition) []entity.ChainBalance {
	requests := s.buildRequests(holderAddress, netDef)
	if len(requests) == 0 {
		return nil
	}

	client, err := s.clientProvider.GetClient(netDef)
	if err != nil {
		s.logger.Warn("Failed to get blockchain client, defaulting balances to zero",
			"network", netDef.Name, "error", err)
		metrics.BalanceQueryFailuresTotal.WithLabelValues(netDef.Identifier).Add(float64(len(requests)))
		return s.zeroBalances(holderAddress, netDef, requests)
	}

	results, err := client.GetBalances(ctx, requests)
	if err != nil {
		s.logger.Warn("Batch balance fetch failed, defaulting balances to zero",
			"holder", holderAddress, "network", netDef.Name, "error", err)
		metrics.BalanceQueryFailuresTotal.WithLabelValues(netDef.Identifier).Add(float64(len(requests)))
		return s.zeroBalances(holderAddress, netDef, requests)
	}

	balances := make([]entity.ChainBalance, 0, len(results))
	for i, res := range results {
		if res.Error != nil {
			s.logger.Warn("Balance sub-request failed, defaulting to zero",
				"holder", holderAddress, "network", netDef.Name,
				"token", res.TokenSymbol, "error", res.Error)
			metrics.BalanceQueryFailuresTotal.WithLabelValues(netDef.Identifier).Inc()
			balances = append(balances, s.zeroBalance(holderAddress, netDef, requests[i]))
			continue
		}
		balances = append(balances, s.valuedBalance(ctx, holderAddress, netDef, requests[i], res))
	}
	return balances
}

// buildRequests assembles the batch request for a network: one native read
// plus one balanceOf per tracked ERC-20.
func (s *scannerServiceImpl) buildRequests(holderAddress string, netDef entity.NetworkDefinition) []entity.BalanceRequestItem {
	requests := []entity.BalanceRequestItem{{
		ID:            fmt.Sprintf("%s-%s-NATIVE", holderAddress, netDef.Identifier),
		Type:          entity.NativeBalanceRequest,
		HolderAddress: holderAddress,
		TokenSymbol:   netDef.NativeSymbol,
		TokenDecimals: netDef.NativeDecimals,
	}}

	for _, token := range netDef.Tokens {
		if token.IsNative() {
			continue // covered by the native read above
		}
		requests = append(requests, entity.BalanceRequestItem{
			ID:            fmt.Sprintf("%s-%s-%s", holderAddress, netDef.Identifier, token.Address),
			Type:          entity.TokenBalanceRequest,
			HolderAddress: holderAddress,
			TokenAddress:  token.Address,
			TokenSymbol:   token.Symbol,
			TokenDecimals: token.Decimals,
		})
	}
	return requests
}

// valuedBalance converts one resolved read into a USD-valued ChainBalance.
func (s *scannerServiceImpl) valuedBalance(
	ctx context.Context,
	holderAddress string,
	netDef entity.NetworkDefinition,
	req entity.BalanceRequestItem,
	res entity.BalanceResultItem,
) entity.ChainBalance {
	cb := entity.ChainBalance{
		HolderAddress:    holderAddress,
		ChainID:          netDef.ChainID,
		NetworkName:      netDef.Name,
		TokenAddress:     req.TokenAddress,
		TokenSymbol:      req.TokenSymbol,
		Decimals:         req.TokenDecimals,
		StableRank:       s.tokenRank(netDef, req),
		IsNative:         res.IsNative,
		Amount:           res.Balance,
		FormattedBalance: res.FormattedBalance,
	}
	if cb.Amount == nil {
		cb.Amount = big.NewInt(0)
		cb.FormattedBalance = "0"
	}
	if cb.IsNative {
		cb.TokenAddress = entity.ZeroAddress
	}

	priceUSD, ok := s.priceFor(ctx, netDef, req)
	if !ok {
		s.logger.Warn("No USD price available, valuing balance at zero",
			"network", netDef.Name, "token", req.TokenSymbol)
		return cb
	}

	value, err := utils.CalculateValueUSD(cb.Amount, cb.Decimals, priceUSD)
	if err != nil {
		s.logger.Error("Failed to calculate USD value",
			"holder", holderAddress, "network", netDef.Name,
			"token", req.TokenSymbol, "error", err)
		return cb
	}
	cb.ValueUSD = value
	return cb
}

// priceFor resolves a token's USD unit price: pegged tokens are worth one
// dollar by definition, everything else goes through the cached price feed.
func (s *scannerServiceImpl) priceFor(ctx context.Context, netDef entity.NetworkDefinition, req entity.BalanceRequestItem) (float64, bool) {
	if req.Type == entity.NativeBalanceRequest {
		return s.priceSvc.PriceUSD(ctx, netDef.NativeSymbol)
	}
	for _, token := range netDef.Tokens {
		if strings.EqualFold(token.Address, req.TokenAddress) {
			if token.USDPegged {
				return 1.0, true
			}
			return s.priceSvc.PriceUSD(ctx, token.Symbol)
		}
	}
	return 0, false
}

func (s *scannerServiceImpl) tokenRank(netDef entity.NetworkDefinition, req entity.BalanceRequestItem) int {
	if req.Type == entity.NativeBalanceRequest {
		return entity.StableRankVolatile
	}
	for _, token := range netDef.Tokens {
		if strings.EqualFold(token.Address, req.TokenAddress) {
			return token.StableRank
		}
	}
	return entity.StableRankVolatile
}

func (s *scannerServiceImpl) zeroBalances(holderAddress string, netDef entity.NetworkDefinition, requests []entity.BalanceRequestItem) []entity.ChainBalance {
	out := make([]entity.ChainBalance, 0, len(requests))
	for _, req := range requests {
		out = append(out, s.zeroBalance(holderAddress, netDef, req))
	}
	return out
}

func (s *scannerServiceImpl) zeroBalance(holderAddress string, netDef entity.NetworkDefinition, req entity.BalanceRequestItem) entity.ChainBalance {
	tokenAddress := req.TokenAddress
	if req.Type == entity.NativeBalanceRequest {
		tokenAddress = entity.ZeroAddress
	}
	return entity.ChainBalance{
		HolderAddress:    holderAddress,
		ChainID:          netDef.ChainID,
		NetworkName:      netDef.Name,
		TokenAddress:     tokenAddress,
		TokenSymbol:      req.TokenSymbol,
		Decimals:         req.TokenDecimals,
		StableRank:       s.tokenRank(netDef, req),
		IsNative:         req.Type == entity.NativeBalanceRequest,
		Amount:           big.NewInt(0),
		FormattedBalance: "0",
	}
}
