package placements

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/xid"
)

type EventKind string

const (
	EventPaymentTokenWhitelistChanged EventKind = "PaymentTokenWhitelistChanged"
	EventTokenPlaced                  EventKind = "TokenPlaced"
	EventTokenUnplaced                EventKind = "TokenUnplaced"
	EventTokenSold                    EventKind = "TokenSold"
	EventOwnershipTransferred         EventKind = "OwnershipTransferred"
)

// Event is one entry of the market's event feed. Optional fields are nil
// for kinds that do not carry them.
type Event struct {
	Id           string          `json:"id"`
	Kind         EventKind       `json:"kind"`
	TokenId      *big.Int        `json:"token_id,omitempty"`
	PaymentToken *common.Address `json:"payment_token,omitempty"`
	Cost         *big.Int        `json:"cost,omitempty"`
	NewOwner     *common.Address `json:"new_owner,omitempty"`
	IsERC20      *bool           `json:"is_erc20,omitempty"`
	IsERC677     *bool           `json:"is_erc677,omitempty"`
	IsERC777     *bool           `json:"is_erc777,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Implements encoding.BinaryMarshaler, needed by the redis publisher.
func (self *Event) MarshalBinary() ([]byte, error) {
	return json.Marshal(self)
}

func newEvent(kind EventKind) *Event {
	return &Event{
		Id:        xid.New().String(),
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
}

func eventWhitelistChanged(entry *Whitelist) *Event {
	out := newEvent(EventPaymentTokenWhitelistChanged)
	token := entry.PaymentToken
	out.PaymentToken = &token
	erc20, erc677, erc777 := entry.IsERC20, entry.IsERC677, entry.IsERC777
	out.IsERC20 = &erc20
	out.IsERC677 = &erc677
	out.IsERC777 = &erc777
	return out
}

func eventTokenPlaced(tokenId *big.Int, paymentToken common.Address, cost *big.Int) *Event {
	out := newEvent(EventTokenPlaced)
	out.TokenId = new(big.Int).Set(tokenId)
	out.PaymentToken = &paymentToken
	out.Cost = new(big.Int).Set(cost)
	return out
}

func eventTokenUnplaced(tokenId *big.Int) *Event {
	out := newEvent(EventTokenUnplaced)
	out.TokenId = new(big.Int).Set(tokenId)
	return out
}

func eventTokenSold(tokenId *big.Int, newOwner common.Address) *Event {
	out := newEvent(EventTokenSold)
	out.TokenId = new(big.Int).Set(tokenId)
	out.NewOwner = &newOwner
	return out
}

func eventOwnershipTransferred(newOwner common.Address) *Event {
	out := newEvent(EventOwnershipTransferred)
	out.NewOwner = &newOwner
	return out
}
