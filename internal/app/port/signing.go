package port

import (
	"context"

	"chainfund/internal/domain/entity"
)

// Signer broadcasts transactions on behalf of the holder. A single signer
// carries one mutable active-chain binding, so it must only be driven from one
// execution loop at a time; concurrent route execution needs one signer each.
type Signer interface {
	// Address returns the holder address transactions are sent from.
	Address() string

	// SwitchChain re-points the signer's active network. Best-effort: callers
	// proceed on failure and individual sends still carry an explicit chain id.
	SwitchChain(ctx context.Context, chainID uint64) error

	// SendTransaction signs and broadcasts the request, returning the
	// transaction hash once it is accepted by the network.
	SendTransaction(ctx context.Context, tx entity.TxRequest) (string, error)
}
