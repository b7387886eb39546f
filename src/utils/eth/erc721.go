package eth

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc721Definition = `[
	{"name":"ownerOf","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"name":"getApproved","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"name":"isApprovedForAll","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"transferFrom","type":"function","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[]}
]`

var erc721Abi = mustParseAbi(erc721Definition)

// ERC721 is the traded collection's contract adapter.
type ERC721 struct {
	client  *Client
	address common.Address
	abi     *abi.ABI
}

func NewERC721(client *Client, address common.Address) *ERC721 {
	return &ERC721{
		client:  client,
		address: address,
		abi:     &erc721Abi,
	}
}

func (self *ERC721) OwnerOf(ctx context.Context, tokenId *big.Int) (out common.Address, err error) {
	result, err := self.client.call(ctx, self.address, self.abi, "ownerOf", tokenId)
	if err != nil {
		return
	}
	return result[0].(common.Address), nil
}

func (self *ERC721) GetApproved(ctx context.Context, tokenId *big.Int) (out common.Address, err error) {
	result, err := self.client.call(ctx, self.address, self.abi, "getApproved", tokenId)
	if err != nil {
		return
	}
	return result[0].(common.Address), nil
}

func (self *ERC721) IsApprovedForAll(ctx context.Context, owner, operator common.Address) (out bool, err error) {
	result, err := self.client.call(ctx, self.address, self.abi, "isApprovedForAll", owner, operator)
	if err != nil {
		return
	}
	return result[0].(bool), nil
}

func (self *ERC721) TransferFrom(ctx context.Context, from, to common.Address, tokenId *big.Int) error {
	data, err := self.abi.Pack("transferFrom", from, to, tokenId)
	if err != nil {
		return err
	}
	return self.client.transact(ctx, self.address, nil, data)
}
