package eth

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20Definition = `[
	{"name":"transfer","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"transferFrom","type":"function","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var erc20Abi = mustParseAbi(erc20Definition)

// ERC20 moves fungible token balances on behalf of the engine account.
type ERC20 struct {
	client  *Client
	address common.Address
	abi     *abi.ABI
}

func NewERC20(client *Client, address common.Address) *ERC20 {
	return &ERC20{
		client:  client,
		address: address,
		abi:     &erc20Abi,
	}
}

func (self *ERC20) TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error {
	data, err := self.abi.Pack("transferFrom", from, to, amount)
	if err != nil {
		return err
	}
	return self.client.transact(ctx, self.address, nil, data)
}

func (self *ERC20) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	data, err := self.abi.Pack("transfer", to, amount)
	if err != nil {
		return err
	}
	return self.client.transact(ctx, self.address, nil, data)
}

func (self *ERC20) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	result, err := self.client.call(ctx, self.address, self.abi, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return result[0].(*big.Int), nil
}

func (self *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	result, err := self.client.call(ctx, self.address, self.abi, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return result[0].(*big.Int), nil
}

// Bank sends native currency from the engine account.
type Bank struct {
	client *Client
}

func NewBank(client *Client) *Bank {
	return &Bank{client: client}
}

func (self *Bank) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("invalid transfer amount")
	}
	return self.client.transact(ctx, to, amount, nil)
}
