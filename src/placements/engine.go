package placements

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rif-marketplace/placements/src/utils/config"
	"github.com/rif-marketplace/placements/src/utils/logger"
	"github.com/rif-marketplace/placements/src/utils/monitoring"
)

// SettlementHook runs after a sale's asset transfers succeed, while the
// ledger transaction is still open. Returning an error aborts the sale.
type SettlementHook func(ctx context.Context, record *Record, buyer common.Address) error

// Engine implements the market's operations on top of a Ledger and the
// asset collaborators. Mutating operations are serialized, each one runs
// in a single atomic ledger update.
type Engine struct {
	Config *config.Config
	Log    *logrus.Entry

	// Emits every event appended to the ledger, in order
	Output chan *Event

	ledger  Ledger
	nft     NFT
	tokens  TokenResolver
	bank    Bank
	account common.Address
	monitor monitoring.Monitor
	hooks   []SettlementHook

	mtx sync.Mutex
}

func NewEngine(config *config.Config) (self *Engine) {
	self = new(Engine)
	self.Config = config
	self.Log = logger.NewSublogger("engine")
	self.Output = make(chan *Event, config.Engine.EventChannelSize)
	self.account = common.HexToAddress(config.Engine.AccountAddress)
	return
}

func (self *Engine) WithLedger(ledger Ledger) *Engine {
	self.ledger = ledger
	return self
}

func (self *Engine) WithNFT(nft NFT) *Engine {
	self.nft = nft
	return self
}

func (self *Engine) WithTokens(tokens TokenResolver) *Engine {
	self.tokens = tokens
	return self
}

func (self *Engine) WithBank(bank Bank) *Engine {
	self.bank = bank
	return self
}

func (self *Engine) WithMonitor(monitor monitoring.Monitor) *Engine {
	self.monitor = monitor
	return self
}

func (self *Engine) WithSettlementHook(hook SettlementHook) *Engine {
	self.hooks = append(self.hooks, hook)
	return self
}

// Account is the address assets get pulled into before forwarding.
func (self *Engine) Account() common.Address {
	return self.account
}

// Initialize sets the traded collection and the first owner. It can
// succeed exactly once per ledger.
func (self *Engine) Initialize(ctx context.Context, nftToken, owner common.Address) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	err := self.ledger.Update(ctx, func(tx LedgerTx) error {
		state, err := tx.GetState()
		if err != nil {
			return err
		}
		if state.Initialized {
			return ErrAlreadyInitialized
		}
		state.Initialized = true
		state.NftToken = nftToken
		state.Owner = owner
		return tx.SetState(state)
	})
	return self.observe(err)
}

// Token returns the traded collection's address.
func (self *Engine) Token(ctx context.Context) (out common.Address, err error) {
	err = self.ledger.View(ctx, func(tx LedgerTx) error {
		state, err := tx.GetState()
		if err != nil {
			return err
		}
		out = state.NftToken
		return nil
	})
	return
}

func (self *Engine) Owner(ctx context.Context) (out common.Address, err error) {
	err = self.ledger.View(ctx, func(tx LedgerTx) error {
		state, err := tx.GetState()
		if err != nil {
			return err
		}
		out = state.Owner
		return nil
	})
	return
}

func (self *Engine) TransferOwnership(ctx context.Context, caller, newOwner common.Address) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if newOwner == (common.Address{}) {
		return self.observe(ErrNewOwnerZeroAddress)
	}

	var emitted []*Event
	err := self.ledger.Update(ctx, func(tx LedgerTx) error {
		emitted = nil
		state, err := self.requireOwner(tx, caller)
		if err != nil {
			return err
		}
		state.Owner = newOwner
		if err = tx.SetState(state); err != nil {
			return err
		}
		return self.emit(tx, &emitted, eventOwnershipTransferred(newOwner))
	})
	self.publish(emitted, err)
	return self.observe(err)
}

func (self *Engine) Paused(ctx context.Context) (out bool, err error) {
	err = self.ledger.View(ctx, func(tx LedgerTx) error {
		state, err := tx.GetState()
		if err != nil {
			return err
		}
		out = state.Paused
		return nil
	})
	return
}

func (self *Engine) Pause(ctx context.Context, caller common.Address) error {
	return self.setPaused(ctx, caller, true)
}

func (self *Engine) Unpause(ctx context.Context, caller common.Address) error {
	return self.setPaused(ctx, caller, false)
}

func (self *Engine) setPaused(ctx context.Context, caller common.Address, paused bool) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	err := self.ledger.Update(ctx, func(tx LedgerTx) error {
		state, err := self.requireOwner(tx, caller)
		if err != nil {
			return err
		}
		if state.Paused == paused {
			if paused {
				return ErrPaused
			}
			return ErrNotPaused
		}
		state.Paused = paused
		return tx.SetState(state)
	})
	return self.observe(err)
}

func (self *Engine) IsGasPaymentAllowed(ctx context.Context) (out bool, err error) {
	err = self.ledger.View(ctx, func(tx LedgerTx) error {
		state, err := tx.GetState()
		if err != nil {
			return err
		}
		out = state.GasAllowed
		return nil
	})
	return
}

// AllowGasPayments toggles settlement in native currency. Changes nothing
// about existing records, stale gas placements fail lazily at purchase.
func (self *Engine) AllowGasPayments(ctx context.Context, caller common.Address, allowance bool) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	err := self.ledger.Update(ctx, func(tx LedgerTx) error {
		state, err := self.requireOwner(tx, caller)
		if err != nil {
			return err
		}
		state.GasAllowed = allowance
		return tx.SetState(state)
	})
	return self.observe(err)
}

// WhitelistedPaymentToken reports the rail flags for a payment token.
// Unknown tokens return all false.
func (self *Engine) WhitelistedPaymentToken(ctx context.Context, paymentToken common.Address) (out Whitelist, err error) {
	out.PaymentToken = paymentToken
	err = self.ledger.View(ctx, func(tx LedgerTx) error {
		entry, err := tx.GetWhitelist(paymentToken)
		if err != nil {
			return err
		}
		if entry != nil {
			out = *entry
		}
		return nil
	})
	return
}

// SetWhitelistedPaymentToken replaces the rail flags of a payment token.
// All flags false removes the entry. Existing placements referencing the
// token are left in place and rejected lazily at purchase.
func (self *Engine) SetWhitelistedPaymentToken(ctx context.Context, caller, paymentToken common.Address, isERC20, isERC677, isERC777 bool) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	var emitted []*Event
	err := self.ledger.Update(ctx, func(tx LedgerTx) error {
		emitted = nil
		if _, err := self.requireOwner(tx, caller); err != nil {
			return err
		}

		entry := &Whitelist{
			PaymentToken: paymentToken,
			IsERC20:      isERC20,
			IsERC677:     isERC677,
			IsERC777:     isERC777,
		}
		var err error
		if entry.Allowed() {
			err = tx.SetWhitelist(entry)
		} else {
			err = tx.DeleteWhitelist(paymentToken)
		}
		if err != nil {
			return err
		}
		return self.emit(tx, &emitted, eventWhitelistChanged(entry))
	})
	self.publish(emitted, err)
	return self.observe(err)
}

// Placement returns the payment token and cost a token is listed for.
func (self *Engine) Placement(ctx context.Context, tokenId *big.Int) (out *Record, err error) {
	err = self.ledger.View(ctx, func(tx LedgerTx) error {
		record, err := tx.GetPlacement(tokenId)
		if err != nil {
			return err
		}
		if record == nil {
			return ErrTokenNotPlaced
		}
		out = record
		return nil
	})
	return out, self.observe(err)
}

// Placements returns every active record, stale ones included.
func (self *Engine) Placements(ctx context.Context) (out []*Record, err error) {
	err = self.ledger.View(ctx, func(tx LedgerTx) error {
		out, err = tx.ListPlacements()
		return err
	})
	return
}

// Place lists a token for sale, replacing any previous listing. The caller
// must control the token and the engine's account must hold transfer
// approval, otherwise the eventual purchase could not be settled.
func (self *Engine) Place(ctx context.Context, caller common.Address, tokenId *big.Int, paymentToken common.Address, cost *big.Int) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	var emitted []*Event
	err := self.ledger.Update(ctx, func(tx LedgerTx) error {
		emitted = nil
		state, err := self.requireRunning(tx)
		if err != nil {
			return err
		}

		owner, err := self.nft.OwnerOf(ctx, tokenId)
		if err != nil {
			return err
		}
		ok, err := self.controlsToken(ctx, caller, owner, tokenId)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotApprovedOrOwner
		}
		ok, err = self.controlsToken(ctx, self.account, owner, tokenId)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotApprovedToTransfer
		}

		if err = self.requireAllowed(tx, state, paymentToken); err != nil {
			return err
		}
		if cost == nil || cost.Sign() <= 0 {
			return ErrZeroCost
		}

		err = tx.SetPlacement(&Record{
			TokenId:      new(big.Int).Set(tokenId),
			PaymentToken: paymentToken,
			Cost:         new(big.Int).Set(cost),
		})
		if err != nil {
			return err
		}
		return self.emit(tx, &emitted, eventTokenPlaced(tokenId, paymentToken, cost))
	})
	if err == nil && self.monitor != nil {
		self.monitor.GetReport().Market.State.PlacementsCreated.Inc()
	}
	self.publish(emitted, err)
	return self.observe(err)
}

// Unplace removes a listing. Deliberately unrestricted, it is the cleanup
// valve for placements that went stale when the token moved or the
// engine's approval was revoked. Works while paused, no-op when there is
// no record.
func (self *Engine) Unplace(ctx context.Context, tokenId *big.Int) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	deleted := false
	var emitted []*Event
	err := self.ledger.Update(ctx, func(tx LedgerTx) error {
		emitted = nil
		var err error
		deleted, err = tx.DeletePlacement(tokenId)
		if err != nil {
			return err
		}
		if !deleted {
			return nil
		}
		return self.emit(tx, &emitted, eventTokenUnplaced(tokenId))
	})
	if err == nil && deleted && self.monitor != nil {
		self.monitor.GetReport().Market.State.PlacementsRemoved.Inc()
	}
	self.publish(emitted, err)
	return self.observe(err)
}

// Buy settles a placement through the approve-and-pull rail, or in native
// currency when the record's payment token is the gas sentinel. value is
// the native amount attached to the call, nil otherwise.
func (self *Engine) Buy(ctx context.Context, caller common.Address, tokenId *big.Int, value *big.Int) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	viaGas := false
	var emitted []*Event
	err := self.ledger.Update(ctx, func(tx LedgerTx) error {
		emitted = nil
		viaGas = false
		state, err := self.requireRunning(tx)
		if err != nil {
			return err
		}
		record, err := tx.GetPlacement(tokenId)
		if err != nil {
			return err
		}
		if record == nil {
			return ErrTokenNotPlaced
		}

		if record.PaymentToken == GasPayment {
			viaGas = true
			if !state.GasAllowed {
				return ErrWrongPurchaseMethod
			}
			if value == nil || value.Cmp(record.Cost) != 0 {
				return ErrTransferAmountIncorrect
			}
			return self.settle(ctx, tx, &emitted, record, caller, nil, func(owner common.Address) error {
				return self.bank.Transfer(ctx, owner, record.Cost)
			})
		}

		entry, err := tx.GetWhitelist(record.PaymentToken)
		if err != nil {
			return err
		}
		if entry == nil || !entry.IsERC20 {
			return ErrWrongPurchaseMethod
		}
		token, err := self.tokens.PaymentToken(record.PaymentToken)
		if err != nil {
			return err
		}
		collect := func() error {
			return token.TransferFrom(ctx, caller, self.account, record.Cost)
		}
		return self.settle(ctx, tx, &emitted, record, caller, collect, func(owner common.Address) error {
			return token.Transfer(ctx, owner, record.Cost)
		})
	})
	if err == nil && self.monitor != nil {
		if viaGas {
			self.monitor.GetReport().Market.State.GasPurchases.Inc()
		} else {
			self.monitor.GetReport().Market.State.TokenPurchases.Inc()
		}
	}
	self.publish(emitted, err)
	return self.observe(err)
}

// TokenFallback is the ERC677 settlement entry point. The payment token
// calls it after crediting the engine's account, data carries the token id
// big-endian. caller is the address the notification came from.
func (self *Engine) TokenFallback(ctx context.Context, caller, from common.Address, amount *big.Int, data []byte) error {
	tokenId := new(big.Int).SetBytes(data)
	return self.settleNotified(ctx, caller, from, tokenId, amount, func(entry *Whitelist) bool {
		return entry.IsERC677
	})
}

// TokensReceived is the ERC777 settlement entry point, called by the
// payment token after crediting the engine's account. userData carries the
// token id big-endian.
func (self *Engine) TokensReceived(ctx context.Context, caller, operator, from, to common.Address, amount *big.Int, userData, operatorData []byte) error {
	tokenId := new(big.Int).SetBytes(userData)
	return self.settleNotified(ctx, caller, from, tokenId, amount, func(entry *Whitelist) bool {
		return entry.IsERC777
	})
}

// settleNotified is the shared push-rail settlement: funds already sit in
// the engine's account, only the forward to the placer remains.
func (self *Engine) settleNotified(ctx context.Context, caller, buyer common.Address, tokenId, amount *big.Int, railAllowed func(*Whitelist) bool) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	var emitted []*Event
	err := self.ledger.Update(ctx, func(tx LedgerTx) error {
		emitted = nil
		if _, err := self.requireRunning(tx); err != nil {
			return err
		}
		record, err := tx.GetPlacement(tokenId)
		if err != nil {
			return err
		}
		if record == nil {
			return ErrTokenNotPlaced
		}
		if caller != record.PaymentToken {
			return ErrOnlyFromPaymentToken
		}

		entry, err := tx.GetWhitelist(record.PaymentToken)
		if err != nil {
			return err
		}
		if entry == nil || !railAllowed(entry) {
			return ErrWrongPurchaseMethod
		}
		if amount == nil || amount.Cmp(record.Cost) != 0 {
			return ErrTransferAmountIncorrect
		}

		token, err := self.tokens.PaymentToken(record.PaymentToken)
		if err != nil {
			return err
		}
		return self.settle(ctx, tx, &emitted, record, buyer, nil, func(owner common.Address) error {
			return token.Transfer(ctx, owner, record.Cost)
		})
	})
	if err == nil && self.monitor != nil {
		self.monitor.GetReport().Market.State.TokenPurchases.Inc()
	}
	self.publish(emitted, err)
	return self.observe(err)
}

// settle finishes a purchase: collects the buyer's funds into the engine
// account, clears the record, runs the settlement hooks, hands the token to
// the buyer and pays the current token owner last. The transfer approval is
// re-verified up front so a stale record fails before anything moves; the
// irreversible asset movements come after every remaining failure point, and
// collected funds stay in the engine's custody until then.
func (self *Engine) settle(ctx context.Context, tx LedgerTx, emitted *[]*Event, record *Record, buyer common.Address, collect func() error, payout func(owner common.Address) error) error {
	owner, err := self.nft.OwnerOf(ctx, record.TokenId)
	if err != nil {
		return err
	}
	ok, err := self.controlsToken(ctx, self.account, owner, record.TokenId)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotApprovedToTransfer
	}
	if collect != nil {
		if err = collect(); err != nil {
			return self.assetErr(err)
		}
	}
	if _, err = tx.DeletePlacement(record.TokenId); err != nil {
		return err
	}
	for _, hook := range self.hooks {
		if err = hook(ctx, record, buyer); err != nil {
			return err
		}
	}
	if err = self.nft.TransferFrom(ctx, owner, buyer, record.TokenId); err != nil {
		return self.assetErr(err)
	}
	if err = payout(owner); err != nil {
		return self.assetErr(err)
	}
	err = self.emit(tx, emitted, eventTokenPlaced(record.TokenId, GasPayment, big.NewInt(0)))
	if err != nil {
		return err
	}
	err = self.emit(tx, emitted, eventTokenSold(record.TokenId, buyer))
	if err != nil {
		return err
	}

	if self.monitor != nil {
		self.monitor.GetReport().Market.State.TokensSold.Inc()
	}
	self.Log.WithField("token_id", record.TokenId.String()).
		WithField("buyer", buyer.Hex()).
		Info("Token sold")
	return nil
}

func (self *Engine) requireRunning(tx LedgerTx) (*State, error) {
	state, err := tx.GetState()
	if err != nil {
		return nil, err
	}
	if !state.Initialized {
		return nil, ErrNotInitialized
	}
	if state.Paused {
		return nil, ErrPaused
	}
	return state, nil
}

func (self *Engine) requireOwner(tx LedgerTx, caller common.Address) (*State, error) {
	state, err := tx.GetState()
	if err != nil {
		return nil, err
	}
	if !state.Initialized {
		return nil, ErrNotInitialized
	}
	if state.Owner != caller {
		return nil, ErrCallerNotOwner
	}
	return state, nil
}

func (self *Engine) requireAllowed(tx LedgerTx, state *State, paymentToken common.Address) error {
	if paymentToken == GasPayment {
		if !state.GasAllowed {
			return ErrPaymentTokenNotAllowed
		}
		return nil
	}
	entry, err := tx.GetWhitelist(paymentToken)
	if err != nil {
		return err
	}
	if entry == nil || !entry.Allowed() {
		return ErrPaymentTokenNotAllowed
	}
	return nil
}

// controlsToken reports whether operator may move the token, either as its
// owner, its approved address, or an operator for the owner.
func (self *Engine) controlsToken(ctx context.Context, operator, owner common.Address, tokenId *big.Int) (bool, error) {
	if operator == owner {
		return true, nil
	}
	approved, err := self.nft.GetApproved(ctx, tokenId)
	if err != nil {
		return false, err
	}
	if approved == operator {
		return true, nil
	}
	return self.nft.IsApprovedForAll(ctx, owner, operator)
}

func (self *Engine) emit(tx LedgerTx, emitted *[]*Event, event *Event) error {
	if err := tx.AppendEvent(event); err != nil {
		return err
	}
	*emitted = append(*emitted, event)
	return nil
}

// publish forwards committed events to the output channel. Drops with a
// warning when the consumer lags, the ledger keeps the durable copy.
func (self *Engine) publish(events []*Event, err error) {
	if err != nil {
		return
	}
	for _, event := range events {
		select {
		case self.Output <- event:
			if self.monitor != nil {
				self.monitor.GetReport().Market.State.EventsPublished.Inc()
			}
		default:
			self.Log.WithField("kind", event.Kind).Warn("Event channel full, dropping event")
		}
	}
}

type assetError struct{ err error }

func (self *assetError) Error() string { return self.err.Error() }
func (self *assetError) Unwrap() error { return self.err }

func (self *Engine) assetErr(err error) error {
	if self.monitor != nil {
		self.monitor.GetReport().Market.Errors.AssetTransfer.Inc()
	}
	return &assetError{err: err}
}

func (self *Engine) observe(err error) error {
	if err == nil || self.monitor == nil {
		return err
	}
	e := &self.monitor.GetReport().Market.Errors
	switch {
	case errors.Is(err, ErrCallerNotOwner):
		e.NotOwner.Inc()
	case errors.Is(err, ErrNotApprovedOrOwner):
		e.NotApprovedOrOwner.Inc()
	case errors.Is(err, ErrNotApprovedToTransfer):
		e.NotApprovedToTransfer.Inc()
	case errors.Is(err, ErrOnlyFromPaymentToken):
		e.OnlyFromPaymentToken.Inc()
	case errors.Is(err, ErrTokenNotPlaced):
		e.TokenNotPlaced.Inc()
	case errors.Is(err, ErrPaymentTokenNotAllowed):
		e.PaymentTokenNotAllowed.Inc()
	case errors.Is(err, ErrZeroCost):
		e.ZeroCost.Inc()
	case errors.Is(err, ErrPaused), errors.Is(err, ErrNotPaused):
		e.Paused.Inc()
	case errors.Is(err, ErrWrongPurchaseMethod):
		e.WrongPurchaseMethod.Inc()
	case errors.Is(err, ErrTransferAmountIncorrect):
		e.TransferAmountIncorrect.Inc()
	}
	return err
}
