package port

import (
	"context"

	"chainfund/internal/domain/entity"
)

// BlockchainClient defines the interface for interacting with a blockchain network.
// Implementations are specific to network types (EVM for now).
type BlockchainClient interface {
	// GetBalances resolves a batch of native/token balance reads in one RPC
	// round trip. Failures are isolated per item via BalanceResultItem.Error;
	// the returned error covers only whole-batch transport failures.
	GetBalances(ctx context.Context, requests []entity.BalanceRequestItem) ([]entity.BalanceResultItem, error)

	// Definition returns the network definition associated with this client.
	Definition() entity.NetworkDefinition
}

// BlockchainClientProvider defines the interface for providing blockchain clients.
// Implementations cache clients per network to avoid repeated dialing.
type BlockchainClientProvider interface {
	GetClient(networkDefinition entity.NetworkDefinition) (BlockchainClient, error)
}

// NetworkDefinitionProvider defines the interface for providing network definitions.
type NetworkDefinitionProvider interface {
	// GetAllNetworkDefinitions returns all available network definitions as a slice.
	GetAllNetworkDefinitions() []entity.NetworkDefinition

	// GetNetworkDefinitionByChainID returns the definition for a chain id,
	// and true if found.
	GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool)

	// GetSettlementNetwork returns the single network deposits must land on,
	// and true if one is configured.
	GetSettlementNetwork() (entity.NetworkDefinition, bool)
}
