package placements

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// LedgerTx is the set of reads and writes available inside one atomic unit.
// Get methods return nil (not an error) when the row is absent.
type LedgerTx interface {
	GetState() (*State, error)
	SetState(state *State) error

	GetPlacement(tokenId *big.Int) (*Record, error)
	SetPlacement(record *Record) error
	DeletePlacement(tokenId *big.Int) (deleted bool, err error)
	ListPlacements() ([]*Record, error)

	GetWhitelist(paymentToken common.Address) (*Whitelist, error)
	SetWhitelist(entry *Whitelist) error
	DeleteWhitelist(paymentToken common.Address) error

	AppendEvent(event *Event) error
}

// Ledger is the market's persistent state. Update runs the callback
// all-or-nothing: either every write it performs becomes visible, or none.
type Ledger interface {
	View(ctx context.Context, f func(tx LedgerTx) error) error
	Update(ctx context.Context, f func(tx LedgerTx) error) error
}
