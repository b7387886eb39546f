package placements

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// NFT is the non-fungible token collection the market trades.
type NFT interface {
	OwnerOf(ctx context.Context, tokenId *big.Int) (common.Address, error)
	GetApproved(ctx context.Context, tokenId *big.Int) (common.Address, error)
	IsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error)
	TransferFrom(ctx context.Context, from, to common.Address, tokenId *big.Int) error
}

// FungibleToken moves payment token balances. TransferFrom pulls from the
// holder's allowance, Transfer sends from the engine's own account.
type FungibleToken interface {
	TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
}

// TokenResolver binds a payment token address to its transfer interface.
type TokenResolver interface {
	PaymentToken(address common.Address) (FungibleToken, error)
}

// Bank sends native currency from the engine's account.
type Bank interface {
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
}
