package eth

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const registryDefinition = `[
	{"name":"owner","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
	{"name":"resolver","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
	{"name":"setResolver","type":"function","stateMutability":"nonpayable","inputs":[{"name":"node","type":"bytes32"},{"name":"resolverAddress","type":"address"}],"outputs":[]},
	{"name":"setOwner","type":"function","stateMutability":"nonpayable","inputs":[{"name":"node","type":"bytes32"},{"name":"ownerAddress","type":"address"}],"outputs":[]}
]`

var registryAbi = mustParseAbi(registryDefinition)

// Registry is the name registry contract adapter.
type Registry struct {
	client  *Client
	address common.Address
	abi     *abi.ABI
}

func NewRegistry(client *Client, address common.Address) *Registry {
	return &Registry{
		client:  client,
		address: address,
		abi:     &registryAbi,
	}
}

func (self *Registry) Owner(ctx context.Context, node common.Hash) (out common.Address, err error) {
	result, err := self.client.call(ctx, self.address, self.abi, "owner", node)
	if err != nil {
		return
	}
	return result[0].(common.Address), nil
}

func (self *Registry) Resolver(ctx context.Context, node common.Hash) (out common.Address, err error) {
	result, err := self.client.call(ctx, self.address, self.abi, "resolver", node)
	if err != nil {
		return
	}
	return result[0].(common.Address), nil
}

func (self *Registry) SetResolver(ctx context.Context, node common.Hash, resolver common.Address) error {
	data, err := self.abi.Pack("setResolver", node, resolver)
	if err != nil {
		return err
	}
	return self.client.transact(ctx, self.address, nil, data)
}

func (self *Registry) SetOwner(ctx context.Context, node common.Hash, owner common.Address) error {
	data, err := self.abi.Pack("setOwner", node, owner)
	if err != nil {
		return err
	}
	return self.client.transact(ctx, self.address, nil, data)
}
