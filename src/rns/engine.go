package rns

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/rif-marketplace/placements/src/placements"
	"github.com/rif-marketplace/placements/src/utils/config"
	"github.com/rif-marketplace/placements/src/utils/logger"
)

// Engine is the name-backed market variant. Token ids are name labels
// under one root node, every sale additionally clears the name's resolver
// and hands the registry entry to the buyer, inside the same settlement.
type Engine struct {
	*placements.Engine

	Log      *logrus.Entry
	rootNode common.Hash
	registry Registry
}

func NewEngine(config *config.Config, base *placements.Engine) (self *Engine) {
	self = new(Engine)
	self.Engine = base
	self.Log = logger.NewSublogger("rns")
	self.rootNode = common.HexToHash(config.Engine.RNSRootNode)
	base.WithSettlementHook(self.onSold)
	return
}

func (self *Engine) WithRegistry(registry Registry) *Engine {
	self.registry = registry
	return self
}

// RootNode is the namehash all traded labels hang under.
func (self *Engine) RootNode() common.Hash {
	return self.rootNode
}

// Node derives the registry node of a traded label.
func Node(rootNode common.Hash, tokenId *big.Int) common.Hash {
	label := common.BigToHash(tokenId)
	return crypto.Keccak256Hash(rootNode.Bytes(), label.Bytes())
}

// onSold runs inside settlement. A registry failure aborts the whole sale.
func (self *Engine) onSold(ctx context.Context, record *placements.Record, buyer common.Address) error {
	node := Node(self.rootNode, record.TokenId)
	if err := self.registry.SetResolver(ctx, node, common.Address{}); err != nil {
		return err
	}
	if err := self.registry.SetOwner(ctx, node, buyer); err != nil {
		return err
	}
	self.Log.WithField("node", node.Hex()).
		WithField("owner", buyer.Hex()).
		Debug("Name reassigned")
	return nil
}
