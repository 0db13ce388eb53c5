package client

import (
	"fmt"
	"sync"
	"time"

	"chainfund/internal/app/port"
	"chainfund/internal/domain/entity"
	"chainfund/internal/infrastructure/configloader"
)

const defaultProviderConnectionTimeout = 10 * time.Second

// EVMClientProvider implements the port.BlockchainClientProvider interface.
// Clients are cached per chain id to avoid reconnecting repeatedly.
type EVMClientProvider struct {
	clients           map[uint64]*EVMClient
	mu                sync.Mutex
	logger            port.Logger
	connectionTimeout time.Duration
	rpcCallTimeout    time.Duration
}

// NewEVMClientProvider creates a new EVMClientProvider.
func NewEVMClientProvider(cfg *configloader.Config, logger port.Logger) *EVMClientProvider {
	return &EVMClientProvider{
		clients:           make(map[uint64]*EVMClient),
		logger:            logger,
		connectionTimeout: defaultProviderConnectionTimeout,
		rpcCallTimeout:    time.Duration(cfg.Performance.RPCCallTimeoutSeconds) * time.Second,
	}
}

// GetClient retrieves a blockchain client for the given network definition.
func (p *EVMClientProvider) GetClient(netDef entity.NetworkDefinition) (port.BlockchainClient, error) {
	return p.getEVMClient(netDef)
}

// getEVMClient returns the concrete cached client, dialing it on first use.
// The keyed signer in this package needs the concrete type for nonce and gas
// plumbing.
func (p *EVMClientProvider) getEVMClient(netDef entity.NetworkDefinition) (*EVMClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cli, exists := p.clients[netDef.ChainID]; exists {
		p.logger.Debug("Returning cached EVM client", "network", netDef.Name)
		return cli, nil
	}

	p.logger.Info("Creating new EVM client", "network", netDef.Name, "rpc_primary", netDef.PrimaryRPCURL)
	newClient, err := NewEVMClient(netDef, p.connectionTimeout, p.rpcCallTimeout)
	if err != nil {
		p.logger.Error("Failed to create EVM client", "network", netDef.Name, "error", err)
		return nil, fmt.Errorf("failed to create EVM client for %s: %w", netDef.Name, err)
	}

	p.clients[netDef.ChainID] = newClient
	return newClient, nil
}

var _ port.BlockchainClientProvider = (*EVMClientProvider)(nil)
