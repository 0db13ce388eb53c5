package entity

import "math/big"

// ChainBalance represents one token's USD-valued balance on one network for one holder.
// Instances are produced fresh by every scan and never persisted.
type ChainBalance struct {
	HolderAddress    string   `json:"-" yaml:"holderAddress"`
	ChainID          uint64   `json:"chainId" yaml:"chainId"`
	NetworkName      string   `json:"networkName" yaml:"networkName"`
	TokenAddress     string   `json:"tokenAddress" yaml:"tokenAddress"`
	TokenSymbol      string   `json:"tokenSymbol" yaml:"tokenSymbol"`
	Decimals         uint8    `json:"decimals" yaml:"decimals"`
	StableRank       int      `json:"stableRank" yaml:"stableRank"`
	IsNative         bool     `json:"isNative" yaml:"isNative"`
	Amount           *big.Int `json:"-" yaml:"amount"`
	FormattedBalance string   `json:"formattedBalance" yaml:"formattedBalance"`
	ValueUSD         float64  `json:"valueUsd" yaml:"valueUsd"`
}
