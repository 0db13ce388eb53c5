package client

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"chainfund/internal/app/port"
	"chainfund/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyedSigner implements port.Signer with a locally held private key. It
// keeps one mutable active-chain binding, so it must only be driven from a
// single execution loop at a time.
type KeyedSigner struct {
	privateKey    *ecdsa.PrivateKey
	address       common.Address
	provider      *EVMClientProvider
	networks      port.NetworkDefinitionProvider
	logger        port.Logger
	mu            sync.Mutex
	activeChainID uint64
}

// NewKeyedSigner builds a signer from a hex-encoded private key.
func NewKeyedSigner(privKeyHex string, provider *EVMClientProvider, networks port.NetworkDefinitionProvider, logger port.Logger) (*KeyedSigner, error) {
	privKeyHex = strings.TrimPrefix(strings.TrimSpace(privKeyHex), "0x")
	key, err := crypto.HexToECDSA(privKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signer private key: %w", err)
	}
	return &KeyedSigner{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
		provider:   provider,
		networks:   networks,
		logger:     logger,
	}, nil
}

// Address returns the holder address transactions are sent from.
func (s *KeyedSigner) Address() string {
	return s.address.Hex()
}

// SwitchChain re-points the signer's active network, warming the RPC client
// for it. Callers treat failures as best-effort and continue.
func (s *KeyedSigner) SwitchChain(ctx context.Context, chainID uint64) error {
	netDef, ok := s.networks.GetNetworkDefinitionByChainID(chainID)
	if !ok {
		return fmt.Errorf("unknown chain id %d", chainID)
	}
	if _, err := s.provider.getEVMClient(netDef); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", netDef.Name, err)
	}

	s.mu.Lock()
	s.activeChainID = chainID
	s.mu.Unlock()
	s.logger.Debug("Signer switched active chain", "chain_id", chainID, "network", netDef.Name)
	return nil
}

// SendTransaction signs and broadcasts the request on the chain it names,
// falling back to the active chain when the request carries no chain id.
func (s *KeyedSigner) SendTransaction(ctx context.Context, tx entity.TxRequest) (string, error) {
	chainID := tx.ChainID
	if chainID == 0 {
		s.mu.Lock()
		chainID = s.activeChainID
		s.mu.Unlock()
	}
	netDef, ok := s.networks.GetNetworkDefinitionByChainID(chainID)
	if !ok {
		return "", fmt.Errorf("unknown chain id %d", chainID)
	}

	cli, err := s.provider.getEVMClient(netDef)
	if err != nil {
		return "", err
	}
	ec := cli.ethClient

	nonce, err := ec.PendingNonceAt(ctx, s.address)
	if err != nil {
		return "", fmt.Errorf("failed to fetch nonce on %s: %w", netDef.Name, err)
	}
	gasPrice, err := ec.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to suggest gas price on %s: %w", netDef.Name, err)
	}

	to := common.HexToAddress(tx.To)
	value := tx.Value
	if value == nil {
		value = big.NewInt(0)
	}

	gasLimit := tx.GasLimit
	if gasLimit == 0 {
		gasLimit, err = ec.EstimateGas(ctx, ethereum.CallMsg{
			From:  s.address,
			To:    &to,
			Value: value,
			Data:  tx.Data,
		})
		if err != nil {
			return "", fmt.Errorf("failed to estimate gas on %s: %w", netDef.Name, err)
		}
	}

	unsigned := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     tx.Data,
	})

	signed, err := types.SignTx(unsigned, types.LatestSignerForChainID(new(big.Int).SetUint64(chainID)), s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := ec.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("failed to broadcast transaction on %s: %w", netDef.Name, err)
	}

	hash := signed.Hash().Hex()
	s.logger.Info("Transaction broadcast",
		"network", netDef.Name, "tx_hash", hash, "nonce", nonce, "gas_limit", gasLimit)
	return hash, nil
}

var _ port.Signer = (*KeyedSigner)(nil)
