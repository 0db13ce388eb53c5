package entity

// StableRank orders tokens by how predictable their USD value is. Lower ranks
// are consumed first when covering a deposit shortfall.
const (
	StableRankPrimary   = 0 // primary stablecoin (e.g. USDC)
	StableRankSecondary = 1 // secondary stablecoins (e.g. USDT, DAI)
	StableRankVolatile  = 2 // native gas assets and other volatile tokens
)

// TokenInfo holds the details of a specific token tracked on a network.
type TokenInfo struct {
	ChainID    uint64 `json:"chainId" yaml:"chainId"`
	Address    string `json:"address" yaml:"address"` // ZeroAddress for the native asset
	Symbol     string `json:"symbol" yaml:"symbol"`
	Decimals   uint8  `json:"decimals" yaml:"decimals"`
	StableRank int    `json:"stableRank" yaml:"stableRank"`
	USDPegged  bool   `json:"usdPegged" yaml:"usdPegged"`
}

// IsNative reports whether the token is the network's gas asset.
func (t TokenInfo) IsNative() bool {
	return t.Address == "" || t.Address == ZeroAddress
}

// NetworkDefinition holds the configuration for a specific blockchain network.
// This structure is defined at the domain level to be used across application and infrastructure layers.
type NetworkDefinition struct {
	ChainID          uint64      `json:"chainId" yaml:"chainId"`
	Name             string      `json:"name" yaml:"name"`
	Identifier       string      `json:"identifier" yaml:"identifier"` // unique short name, e.g. "ethereum", "base"
	NativeSymbol     string      `json:"nativeSymbol" yaml:"nativeSymbol"`
	NativeDecimals   uint8       `json:"nativeDecimals" yaml:"nativeDecimals"`
	PrimaryRPCURL    string      `json:"primaryRpcUrl" yaml:"primaryRpcUrl"`
	FallbackRPCURLs  []string    `json:"fallbackRpcUrls" yaml:"fallbackRpcUrls"`
	BlockExplorerURL string      `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
	Settlement       bool        `json:"settlement" yaml:"settlement"` // true for the single chain deposits must land on
	Tokens           []TokenInfo `json:"tokens" yaml:"tokens"`
}

// SettlementToken returns the network's primary stablecoin, the asset deposits
// are denominated in on the settlement chain.
func (n NetworkDefinition) SettlementToken() (TokenInfo, bool) {
	for _, t := range n.Tokens {
		if t.StableRank == StableRankPrimary && t.USDPegged {
			return t, true
		}
	}
	return TokenInfo{}, false
}
