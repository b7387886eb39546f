package rns

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is the external name registry the variant updates on every
// sale. Nodes are namehash values.
type Registry interface {
	Owner(ctx context.Context, node common.Hash) (common.Address, error)
	Resolver(ctx context.Context, node common.Hash) (common.Address, error)
	SetResolver(ctx context.Context, node common.Hash, resolver common.Address) error
	SetOwner(ctx context.Context, node common.Hash, owner common.Address) error
}
