package service

import (
	"context"
	"sync"

	"chainfund/internal/app/port"
	"chainfund/internal/domain/entity"
)

// nopLogger satisfies port.Logger for tests.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// fakeNetworkProvider serves a fixed registry.
type fakeNetworkProvider struct {
	networks []entity.NetworkDefinition
}

func (f *fakeNetworkProvider) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	return f.networks
}

func (f *fakeNetworkProvider) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	for _, nd := range f.networks {
		if nd.ChainID == chainID {
			return nd, true
		}
	}
	return entity.NetworkDefinition{}, false
}

func (f *fakeNetworkProvider) GetSettlementNetwork() (entity.NetworkDefinition, bool) {
	for _, nd := range f.networks {
		if nd.Settlement {
			return nd, true
		}
	}
	return entity.NetworkDefinition{}, false
}

// testNetworks returns a registry with Base as the settlement chain plus two
// source chains.
func testNetworks() []entity.NetworkDefinition {
	return []entity.NetworkDefinition{
		{
			ChainID: 8453, Name: "Base", Identifier: "base",
			NativeSymbol: "ETH", NativeDecimals: 18, Settlement: true,
			PrimaryRPCURL: "http://localhost:1",
			Tokens: []entity.TokenInfo{
				{ChainID: 8453, Address: "0xbaseUSDC", Symbol: "USDC", Decimals: 6, StableRank: entity.StableRankPrimary, USDPegged: true},
			},
		},
		{
			ChainID: 1, Name: "Ethereum", Identifier: "ethereum",
			NativeSymbol: "ETH", NativeDecimals: 18,
			PrimaryRPCURL: "http://localhost:2",
			Tokens: []entity.TokenInfo{
				{ChainID: 1, Address: "0xethUSDC", Symbol: "USDC", Decimals: 6, StableRank: entity.StableRankPrimary, USDPegged: true},
				{ChainID: 1, Address: "0xethUSDT", Symbol: "USDT", Decimals: 6, StableRank: entity.StableRankSecondary, USDPegged: true},
			},
		},
		{
			ChainID: 42161, Name: "Arbitrum", Identifier: "arbitrum",
			NativeSymbol: "ETH", NativeDecimals: 18,
			PrimaryRPCURL: "http://localhost:3",
			Tokens: []entity.TokenInfo{
				{ChainID: 42161, Address: "0xarbUSDC", Symbol: "USDC", Decimals: 6, StableRank: entity.StableRankPrimary, USDPegged: true},
			},
		},
	}
}

// fakeRouteProvider records quote calls and replays scripted progress on
// execution.
type fakeRouteProvider struct {
	mu sync.Mutex

	quoteCalls   []entity.RouteQuery
	failQuoteFor map[string]error // keyed by FromTokenAddress

	executeCalls []string // route IDs in execution order
	failExecFor  map[string]error
	progressFor  map[string][]entity.RouteProgress
}

func (f *fakeRouteProvider) GetRoutes(_ context.Context, q entity.RouteQuery) (*entity.Route, error) {
	f.mu.Lock()
	f.quoteCalls = append(f.quoteCalls, q)
	f.mu.Unlock()

	if err, ok := f.failQuoteFor[q.FromTokenAddress]; ok {
		return nil, err
	}
	return &entity.Route{
		ID:               q.FromTokenAddress,
		FromChainID:      q.FromChainID,
		ToChainID:        q.ToChainID,
		FromTokenAddress: q.FromTokenAddress,
		ToTokenAddress:   q.ToTokenAddress,
		FromAddress:      q.FromAddress,
		ToAddress:        q.ToAddress,
		FromAmount:       q.Amount,
		EstimatedSeconds: 120,
		FeeUSD:           0.25,
	}, nil
}

func (f *fakeRouteProvider) ExecuteRoute(_ context.Context, route *entity.Route, _ port.Signer, onProgress port.RouteProgressFunc) error {
	f.mu.Lock()
	f.executeCalls = append(f.executeCalls, route.ID)
	f.mu.Unlock()

	for _, p := range f.progressFor[route.ID] {
		onProgress(p)
	}
	if err, ok := f.failExecFor[route.ID]; ok {
		return err
	}
	return nil
}

func (f *fakeRouteProvider) quoteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.quoteCalls)
}

// fakeSigner records chain switches and sends.
type fakeSigner struct {
	mu       sync.Mutex
	switches []uint64
	sends    []entity.TxRequest
	sendErr  error
}

func (f *fakeSigner) Address() string { return "0xholder" }

func (f *fakeSigner) SwitchChain(_ context.Context, chainID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switches = append(f.switches, chainID)
	return nil
}

func (f *fakeSigner) SendTransaction(_ context.Context, tx entity.TxRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sends = append(f.sends, tx)
	return "0xtxhash", nil
}

// fakePriceService serves fixed prices by symbol.
type fakePriceService struct {
	prices map[string]float64
}

func (f *fakePriceService) PriceUSD(_ context.Context, symbol string) (float64, bool) {
	p, ok := f.prices[symbol]
	return p, ok
}
