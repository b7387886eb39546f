package placements

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MemoryLedger keeps the market state in process memory. Updates run on a
// copy that replaces the live snapshot only when the callback succeeds, so
// a failed operation leaves nothing behind. Used in development mode and
// by tests, production runs on Store.
type MemoryLedger struct {
	mtx     sync.RWMutex
	current *memorySnapshot
}

type memorySnapshot struct {
	state      State
	placements map[string]Record
	whitelist  map[common.Address]Whitelist
	events     []*Event
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		current: &memorySnapshot{
			placements: map[string]Record{},
			whitelist:  map[common.Address]Whitelist{},
		},
	}
}

func (self *MemoryLedger) View(ctx context.Context, f func(tx LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return f(&memoryTx{snapshot: self.current})
}

func (self *MemoryLedger) Update(ctx context.Context, f func(tx LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	self.mtx.Lock()
	defer self.mtx.Unlock()

	next := self.current.clone()
	if err := f(&memoryTx{snapshot: next}); err != nil {
		return err
	}
	self.current = next
	return nil
}

// Events returns the committed event log, oldest first.
func (self *MemoryLedger) Events() []*Event {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	out := make([]*Event, len(self.current.events))
	copy(out, self.current.events)
	return out
}

func (self *memorySnapshot) clone() *memorySnapshot {
	next := &memorySnapshot{
		state:      self.state,
		placements: make(map[string]Record, len(self.placements)),
		whitelist:  make(map[common.Address]Whitelist, len(self.whitelist)),
		events:     make([]*Event, len(self.events), len(self.events)+2),
	}
	for key, record := range self.placements {
		next.placements[key] = record
	}
	for key, entry := range self.whitelist {
		next.whitelist[key] = entry
	}
	copy(next.events, self.events)
	return next
}

type memoryTx struct {
	snapshot *memorySnapshot
}

func memoryKey(tokenId *big.Int) string {
	return hexutil.EncodeBig(tokenId)
}

func (self *memoryTx) GetState() (*State, error) {
	state := self.snapshot.state
	return &state, nil
}

func (self *memoryTx) SetState(state *State) error {
	self.snapshot.state = *state
	return nil
}

func (self *memoryTx) GetPlacement(tokenId *big.Int) (*Record, error) {
	record, ok := self.snapshot.placements[memoryKey(tokenId)]
	if !ok {
		return nil, nil
	}
	out := Record{
		TokenId:      new(big.Int).Set(record.TokenId),
		PaymentToken: record.PaymentToken,
		Cost:         new(big.Int).Set(record.Cost),
	}
	return &out, nil
}

func (self *memoryTx) SetPlacement(record *Record) error {
	self.snapshot.placements[memoryKey(record.TokenId)] = Record{
		TokenId:      new(big.Int).Set(record.TokenId),
		PaymentToken: record.PaymentToken,
		Cost:         new(big.Int).Set(record.Cost),
	}
	return nil
}

func (self *memoryTx) DeletePlacement(tokenId *big.Int) (bool, error) {
	key := memoryKey(tokenId)
	_, ok := self.snapshot.placements[key]
	delete(self.snapshot.placements, key)
	return ok, nil
}

func (self *memoryTx) ListPlacements() (out []*Record, err error) {
	for _, record := range self.snapshot.placements {
		out = append(out, &Record{
			TokenId:      new(big.Int).Set(record.TokenId),
			PaymentToken: record.PaymentToken,
			Cost:         new(big.Int).Set(record.Cost),
		})
	}
	return
}

func (self *memoryTx) GetWhitelist(paymentToken common.Address) (*Whitelist, error) {
	entry, ok := self.snapshot.whitelist[paymentToken]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (self *memoryTx) SetWhitelist(entry *Whitelist) error {
	self.snapshot.whitelist[entry.PaymentToken] = *entry
	return nil
}

func (self *memoryTx) DeleteWhitelist(paymentToken common.Address) error {
	delete(self.snapshot.whitelist, paymentToken)
	return nil
}

func (self *memoryTx) AppendEvent(event *Event) error {
	self.snapshot.events = append(self.snapshot.events, event)
	return nil
}
