package provider

import (
	"chainfund/internal/app/port"
	"chainfund/internal/domain/entity"
)

type networkProviderImpl struct {
	definitions []entity.NetworkDefinition
	byChainID   map[uint64]entity.NetworkDefinition
	settlement  entity.NetworkDefinition
	hasSettle   bool
	logger      port.Logger
}

// NewNetworkProvider builds a NetworkDefinitionProvider over the statically
// configured network registry.
func NewNetworkProvider(definitions []entity.NetworkDefinition, logger port.Logger) port.NetworkDefinitionProvider {
	p := &networkProviderImpl{
		definitions: definitions,
		byChainID:   make(map[uint64]entity.NetworkDefinition, len(definitions)),
		logger:      logger,
	}
	for _, nd := range definitions {
		p.byChainID[nd.ChainID] = nd
		if nd.Settlement && !p.hasSettle {
			p.settlement = nd
			p.hasSettle = true
		}
	}
	logger.Info("Network registry initialized", "networks", len(definitions), "has_settlement", p.hasSettle)
	return p
}

// GetAllNetworkDefinitions returns all available network definitions as a slice.
func (p *networkProviderImpl) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	out := make([]entity.NetworkDefinition, len(p.definitions))
	copy(out, p.definitions)
	return out
}

// GetNetworkDefinitionByChainID returns the definition for a chain id, and true if found.
func (p *networkProviderImpl) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	nd, ok := p.byChainID[chainID]
	return nd, ok
}

// GetSettlementNetwork returns the configured settlement network, and true if one exists.
func (p *networkProviderImpl) GetSettlementNetwork() (entity.NetworkDefinition, bool) {
	return p.settlement, p.hasSettle
}
