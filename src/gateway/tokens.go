package gateway

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/rif-marketplace/placements/src/placements"
	"github.com/rif-marketplace/placements/src/utils/eth"
)

// TokenResolver hands out ERC20 adapters for whitelisted payment tokens.
type TokenResolver struct {
	client *eth.Client
}

func NewTokenResolver(client *eth.Client) *TokenResolver {
	return &TokenResolver{client: client}
}

func (self *TokenResolver) PaymentToken(address common.Address) (placements.FungibleToken, error) {
	return eth.NewERC20(self.client, address), nil
}
