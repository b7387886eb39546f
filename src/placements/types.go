package placements

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// GasPayment is the reserved payment token value that selects settlement in
// the chain's native currency instead of a fungible token contract.
var GasPayment = common.Address{}

// Record is one active placement. Placements are keyed by token id, one per
// token. Records are treated as immutable once stored, replace to update.
type Record struct {
	TokenId      *big.Int
	PaymentToken common.Address
	Cost         *big.Int
}

// Whitelist describes which settlement rails a payment token may use.
// A token with all flags false is not whitelisted at all.
type Whitelist struct {
	PaymentToken common.Address
	IsERC20      bool
	IsERC677     bool
	IsERC777     bool
}

func (self *Whitelist) Allowed() bool {
	return self.IsERC20 || self.IsERC677 || self.IsERC777
}

// State is the singleton market configuration row.
type State struct {
	Initialized bool
	NftToken    common.Address
	Owner       common.Address
	Paused      bool
	GasAllowed  bool
}
