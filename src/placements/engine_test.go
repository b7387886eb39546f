package placements

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/rif-marketplace/placements/src/utils/config"
	monitor_market "github.com/rif-marketplace/placements/src/utils/monitoring/market"
)

var (
	admin    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	seller   = common.HexToAddress("0x0000000000000000000000000000000000000002")
	buyer    = common.HexToAddress("0x0000000000000000000000000000000000000003")
	stranger = common.HexToAddress("0x0000000000000000000000000000000000000004")
	market   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	nftAddr  = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	erc20Tok = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	erc677   = common.HexToAddress("0x00000000000000000000000000000000000000dd")
	erc777   = common.HexToAddress("0x00000000000000000000000000000000000000ee")
)

// In-memory ERC721 double. Transfers enforce the same approval rules the
// chain would.
type fakeNFT struct {
	owners    map[string]common.Address
	approved  map[string]common.Address
	operators map[common.Address]map[common.Address]bool
}

func newFakeNFT() *fakeNFT {
	return &fakeNFT{
		owners:    map[string]common.Address{},
		approved:  map[string]common.Address{},
		operators: map[common.Address]map[common.Address]bool{},
	}
}

func (self *fakeNFT) mint(tokenId *big.Int, owner common.Address) {
	self.owners[tokenId.String()] = owner
}

func (self *fakeNFT) approve(tokenId *big.Int, operator common.Address) {
	self.approved[tokenId.String()] = operator
}

func (self *fakeNFT) setApprovalForAll(owner, operator common.Address, approved bool) {
	if self.operators[owner] == nil {
		self.operators[owner] = map[common.Address]bool{}
	}
	self.operators[owner][operator] = approved
}

func (self *fakeNFT) OwnerOf(ctx context.Context, tokenId *big.Int) (common.Address, error) {
	owner, ok := self.owners[tokenId.String()]
	if !ok {
		return common.Address{}, errors.New("ERC721: owner query for nonexistent token")
	}
	return owner, nil
}

func (self *fakeNFT) GetApproved(ctx context.Context, tokenId *big.Int) (common.Address, error) {
	return self.approved[tokenId.String()], nil
}

func (self *fakeNFT) IsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error) {
	return self.operators[owner][operator], nil
}

func (self *fakeNFT) TransferFrom(ctx context.Context, from, to common.Address, tokenId *big.Int) error {
	key := tokenId.String()
	owner, ok := self.owners[key]
	if !ok || owner != from {
		return errors.New("ERC721: transfer of token that is not own")
	}
	if self.approved[key] != market && !self.operators[owner][market] {
		return errors.New("ERC721: transfer caller is not owner nor approved")
	}
	self.owners[key] = to
	delete(self.approved, key)
	return nil
}

// In-memory fungible token double shared by all three rails. The market's
// own balance stands in for funds held by the engine account.
type fakeToken struct {
	address   common.Address
	balances  map[common.Address]*big.Int
	allowance map[common.Address]*big.Int
}

func newFakeToken(address common.Address) *fakeToken {
	return &fakeToken{
		address:   address,
		balances:  map[common.Address]*big.Int{},
		allowance: map[common.Address]*big.Int{},
	}
}

func (self *fakeToken) balanceOf(account common.Address) *big.Int {
	out, ok := self.balances[account]
	if !ok {
		return big.NewInt(0)
	}
	return out
}

func (self *fakeToken) setBalance(account common.Address, amount int64) {
	self.balances[account] = big.NewInt(amount)
}

func (self *fakeToken) approve(owner common.Address, amount int64) {
	self.allowance[owner] = big.NewInt(amount)
}

func (self *fakeToken) TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error {
	allowed, ok := self.allowance[from]
	if !ok || allowed.Cmp(amount) < 0 {
		return errors.New("ERC20: transfer amount exceeds allowance")
	}
	if self.balanceOf(from).Cmp(amount) < 0 {
		return errors.New("ERC20: transfer amount exceeds balance")
	}
	allowed.Sub(allowed, amount)
	self.balances[from] = new(big.Int).Sub(self.balanceOf(from), amount)
	self.balances[to] = new(big.Int).Add(self.balanceOf(to), amount)
	return nil
}

func (self *fakeToken) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	if self.balanceOf(market).Cmp(amount) < 0 {
		return errors.New("ERC20: transfer amount exceeds balance")
	}
	self.balances[market] = new(big.Int).Sub(self.balanceOf(market), amount)
	self.balances[to] = new(big.Int).Add(self.balanceOf(to), amount)
	return nil
}

type fakeResolver struct {
	tokens map[common.Address]*fakeToken
}

func (self *fakeResolver) PaymentToken(address common.Address) (FungibleToken, error) {
	token, ok := self.tokens[address]
	if !ok {
		return nil, errors.New("unknown payment token")
	}
	return token, nil
}

type bankTransfer struct {
	To     common.Address
	Amount *big.Int
}

type fakeBank struct {
	transfers []bankTransfer
	fail      bool
}

func (self *fakeBank) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	if self.fail {
		return errors.New("native transfer failed")
	}
	self.transfers = append(self.transfers, bankTransfer{To: to, Amount: new(big.Int).Set(amount)})
	return nil
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

type EngineTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config

	ledger   *MemoryLedger
	nft      *fakeNFT
	tokens   *fakeResolver
	bank     *fakeBank
	engine   *Engine
	tokenA   *fakeToken
	token677 *fakeToken
	token777 *fakeToken
}

func (s *EngineTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
}

func (s *EngineTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *EngineTestSuite) SetupTest() {
	s.config = config.Default()
	s.config.Engine.AccountAddress = market.Hex()

	s.ledger = NewMemoryLedger()
	s.nft = newFakeNFT()
	s.tokenA = newFakeToken(erc20Tok)
	s.token677 = newFakeToken(erc677)
	s.token777 = newFakeToken(erc777)
	s.tokens = &fakeResolver{tokens: map[common.Address]*fakeToken{
		erc20Tok: s.tokenA,
		erc677:   s.token677,
		erc777:   s.token777,
	}}
	s.bank = new(fakeBank)

	s.engine = NewEngine(s.config).
		WithLedger(s.ledger).
		WithNFT(s.nft).
		WithTokens(s.tokens).
		WithBank(s.bank)

	err := s.engine.Initialize(s.ctx, nftAddr, admin)
	assert.Nil(s.T(), err)
}

// mintPlaceable prepares a token the market could settle: seller owns it
// and the market account holds transfer approval.
func (s *EngineTestSuite) mintPlaceable(tokenId *big.Int) {
	s.nft.mint(tokenId, seller)
	s.nft.approve(tokenId, market)
}

func (s *EngineTestSuite) whitelist(token common.Address, isERC20, isERC677, isERC777 bool) {
	err := s.engine.SetWhitelistedPaymentToken(s.ctx, admin, token, isERC20, isERC677, isERC777)
	assert.Nil(s.T(), err)
}

func (s *EngineTestSuite) TestInitializeOnce() {
	err := s.engine.Initialize(s.ctx, nftAddr, admin)
	assert.ErrorIs(s.T(), err, ErrAlreadyInitialized)
	assert.EqualError(s.T(), err, "Contract instance has already been initialized")

	token, err := s.engine.Token(s.ctx)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), nftAddr, token)

	owner, err := s.engine.Owner(s.ctx)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), admin, owner)
}

func (s *EngineTestSuite) TestPlacementNotPlaced() {
	_, err := s.engine.Placement(s.ctx, big.NewInt(1))
	assert.ErrorIs(s.T(), err, ErrTokenNotPlaced)
	assert.EqualError(s.T(), err, "Token not placed.")
}

func (s *EngineTestSuite) TestPlaceAndQuery() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc20Tok, true, false, false)

	err := s.engine.Place(s.ctx, seller, tokenId, erc20Tok, big.NewInt(1000))
	assert.Nil(s.T(), err)

	record, err := s.engine.Placement(s.ctx, tokenId)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), erc20Tok, record.PaymentToken)
	assert.Equal(s.T(), int64(1000), record.Cost.Int64())

	events := s.ledger.Events()
	last := events[len(events)-1]
	assert.Equal(s.T(), EventTokenPlaced, last.Kind)
	assert.Equal(s.T(), int64(42), last.TokenId.Int64())
}

func (s *EngineTestSuite) TestRePlaceOverwrites() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc20Tok, true, false, false)
	s.whitelist(erc677, false, true, false)

	err := s.engine.Place(s.ctx, seller, tokenId, erc20Tok, big.NewInt(1000))
	assert.Nil(s.T(), err)
	err = s.engine.Place(s.ctx, seller, tokenId, erc677, big.NewInt(2000))
	assert.Nil(s.T(), err)

	record, err := s.engine.Placement(s.ctx, tokenId)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), erc677, record.PaymentToken)
	assert.Equal(s.T(), int64(2000), record.Cost.Int64())
}

func (s *EngineTestSuite) TestPlaceZeroCost() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc20Tok, true, false, false)

	err := s.engine.Place(s.ctx, seller, tokenId, erc20Tok, big.NewInt(0))
	assert.ErrorIs(s.T(), err, ErrZeroCost)
	assert.EqualError(s.T(), err, "Cost should be greater than zero.")

	_, err = s.engine.Placement(s.ctx, tokenId)
	assert.ErrorIs(s.T(), err, ErrTokenNotPlaced)
}

func (s *EngineTestSuite) TestPlaceUnwhitelistedToken() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)

	err := s.engine.Place(s.ctx, seller, tokenId, erc20Tok, big.NewInt(1000))
	assert.ErrorIs(s.T(), err, ErrPaymentTokenNotAllowed)
	assert.EqualError(s.T(), err, "Payment token not allowed.")
}

func (s *EngineTestSuite) TestPlaceNotApprovedToTransfer() {
	tokenId := big.NewInt(42)
	s.nft.mint(tokenId, seller)
	s.whitelist(erc20Tok, true, false, false)

	err := s.engine.Place(s.ctx, seller, tokenId, erc20Tok, big.NewInt(1000))
	assert.ErrorIs(s.T(), err, ErrNotApprovedToTransfer)
	assert.EqualError(s.T(), err, "Not approved to transfer.")
}

func (s *EngineTestSuite) TestPlaceNotApprovedOrOwner() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc20Tok, true, false, false)

	err := s.engine.Place(s.ctx, stranger, tokenId, erc20Tok, big.NewInt(1000))
	assert.ErrorIs(s.T(), err, ErrNotApprovedOrOwner)
	assert.EqualError(s.T(), err, "Not approved or owner.")
}

func (s *EngineTestSuite) TestPlaceByApprovedOperator() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.nft.setApprovalForAll(seller, stranger, true)
	s.whitelist(erc20Tok, true, false, false)

	err := s.engine.Place(s.ctx, stranger, tokenId, erc20Tok, big.NewInt(1000))
	assert.Nil(s.T(), err)
}

func (s *EngineTestSuite) TestPlaceNativeRequiresAllowance() {
	tokenId := big.NewInt(7)
	s.mintPlaceable(tokenId)

	err := s.engine.Place(s.ctx, seller, tokenId, GasPayment, big.NewInt(1000))
	assert.ErrorIs(s.T(), err, ErrPaymentTokenNotAllowed)

	err = s.engine.AllowGasPayments(s.ctx, admin, true)
	assert.Nil(s.T(), err)

	err = s.engine.Place(s.ctx, seller, tokenId, GasPayment, big.NewInt(1000))
	assert.Nil(s.T(), err)
}

func (s *EngineTestSuite) TestPlaceWhilePaused() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc20Tok, true, false, false)

	err := s.engine.Pause(s.ctx, admin)
	assert.Nil(s.T(), err)

	err = s.engine.Place(s.ctx, seller, tokenId, erc20Tok, big.NewInt(1000))
	assert.ErrorIs(s.T(), err, ErrPaused)
	assert.EqualError(s.T(), err, "Pausable: paused")
}

func (s *EngineTestSuite) TestAdminOperationsRequireOwner() {
	err := s.engine.SetWhitelistedPaymentToken(s.ctx, stranger, erc20Tok, true, false, false)
	assert.ErrorIs(s.T(), err, ErrCallerNotOwner)
	assert.EqualError(s.T(), err, "Ownable: caller is not the owner")

	err = s.engine.Pause(s.ctx, stranger)
	assert.ErrorIs(s.T(), err, ErrCallerNotOwner)

	err = s.engine.AllowGasPayments(s.ctx, stranger, true)
	assert.ErrorIs(s.T(), err, ErrCallerNotOwner)

	err = s.engine.TransferOwnership(s.ctx, stranger, stranger)
	assert.ErrorIs(s.T(), err, ErrCallerNotOwner)
}

func (s *EngineTestSuite) TestTransferOwnership() {
	err := s.engine.TransferOwnership(s.ctx, admin, stranger)
	assert.Nil(s.T(), err)

	owner, err := s.engine.Owner(s.ctx)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), stranger, owner)

	// Old admin lost the role
	err = s.engine.Pause(s.ctx, admin)
	assert.ErrorIs(s.T(), err, ErrCallerNotOwner)

	err = s.engine.Pause(s.ctx, stranger)
	assert.Nil(s.T(), err)
}

func (s *EngineTestSuite) TestTransferOwnershipToZeroAddress() {
	err := s.engine.TransferOwnership(s.ctx, admin, common.Address{})
	assert.ErrorIs(s.T(), err, ErrNewOwnerZeroAddress)

	owner, err := s.engine.Owner(s.ctx)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), admin, owner)
}

func (s *EngineTestSuite) TestPauseTwice() {
	err := s.engine.Pause(s.ctx, admin)
	assert.Nil(s.T(), err)
	err = s.engine.Pause(s.ctx, admin)
	assert.ErrorIs(s.T(), err, ErrPaused)

	err = s.engine.Unpause(s.ctx, admin)
	assert.Nil(s.T(), err)
	err = s.engine.Unpause(s.ctx, admin)
	assert.ErrorIs(s.T(), err, ErrNotPaused)
}

func (s *EngineTestSuite) TestWhitelistQueryUnknown() {
	entry, err := s.engine.WhitelistedPaymentToken(s.ctx, erc20Tok)
	assert.Nil(s.T(), err)
	assert.False(s.T(), entry.IsERC20)
	assert.False(s.T(), entry.IsERC677)
	assert.False(s.T(), entry.IsERC777)
}

func (s *EngineTestSuite) TestWhitelistSetAndClear() {
	s.whitelist(erc20Tok, true, true, false)

	entry, err := s.engine.WhitelistedPaymentToken(s.ctx, erc20Tok)
	assert.Nil(s.T(), err)
	assert.True(s.T(), entry.IsERC20)
	assert.True(s.T(), entry.IsERC677)
	assert.False(s.T(), entry.IsERC777)

	s.whitelist(erc20Tok, false, false, false)

	entry, err = s.engine.WhitelistedPaymentToken(s.ctx, erc20Tok)
	assert.Nil(s.T(), err)
	assert.False(s.T(), entry.IsERC20)
}

func (s *EngineTestSuite) TestBuyWithErc20() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc20Tok, true, false, false)
	s.tokenA.setBalance(buyer, 1000)
	s.tokenA.approve(buyer, 1000)

	err := s.engine.Place(s.ctx, seller, tokenId, erc20Tok, big.NewInt(1000))
	assert.Nil(s.T(), err)

	err = s.engine.Buy(s.ctx, buyer, tokenId, nil)
	assert.Nil(s.T(), err)

	owner, err := s.nft.OwnerOf(s.ctx, tokenId)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), buyer, owner)
	assert.Equal(s.T(), int64(1000), s.tokenA.balanceOf(seller).Int64())
	assert.Equal(s.T(), int64(0), s.tokenA.balanceOf(buyer).Int64())

	_, err = s.engine.Placement(s.ctx, tokenId)
	assert.ErrorIs(s.T(), err, ErrTokenNotPlaced)

	// Clearing event then the sale itself
	events := s.ledger.Events()
	assert.Equal(s.T(), EventTokenSold, events[len(events)-1].Kind)
	assert.Equal(s.T(), buyer, *events[len(events)-1].NewOwner)
	assert.Equal(s.T(), EventTokenPlaced, events[len(events)-2].Kind)
	assert.Equal(s.T(), GasPayment, *events[len(events)-2].PaymentToken)
	assert.Equal(s.T(), int64(0), events[len(events)-2].Cost.Int64())

	// Double purchase loses the race
	err = s.engine.Buy(s.ctx, buyer, tokenId, nil)
	assert.ErrorIs(s.T(), err, ErrTokenNotPlaced)
}

func (s *EngineTestSuite) TestBuyInsufficientAllowance() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc20Tok, true, false, false)
	s.tokenA.setBalance(buyer, 1000)
	s.tokenA.approve(buyer, 500)

	err := s.engine.Place(s.ctx, seller, tokenId, erc20Tok, big.NewInt(1000))
	assert.Nil(s.T(), err)

	err = s.engine.Buy(s.ctx, buyer, tokenId, nil)
	assert.ErrorContains(s.T(), err, "exceeds allowance")

	owner, err := s.nft.OwnerOf(s.ctx, tokenId)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), seller, owner)

	_, err = s.engine.Placement(s.ctx, tokenId)
	assert.Nil(s.T(), err)
}

func (s *EngineTestSuite) TestBuyWrongMethod() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc677, false, true, false)

	err := s.engine.Place(s.ctx, seller, tokenId, erc677, big.NewInt(1000))
	assert.Nil(s.T(), err)

	err = s.engine.Buy(s.ctx, buyer, tokenId, nil)
	assert.ErrorIs(s.T(), err, ErrWrongPurchaseMethod)
	assert.EqualError(s.T(), err, "Wrong purchase method.")
}

func (s *EngineTestSuite) TestBuyNative() {
	tokenId := big.NewInt(7)
	s.mintPlaceable(tokenId)
	err := s.engine.AllowGasPayments(s.ctx, admin, true)
	assert.Nil(s.T(), err)

	err = s.engine.Place(s.ctx, seller, tokenId, GasPayment, big.NewInt(1000))
	assert.Nil(s.T(), err)

	// Exact value required, above and below both fail
	err = s.engine.Buy(s.ctx, buyer, tokenId, big.NewInt(999))
	assert.ErrorIs(s.T(), err, ErrTransferAmountIncorrect)
	assert.EqualError(s.T(), err, "Transfer amount is not correct.")
	err = s.engine.Buy(s.ctx, buyer, tokenId, big.NewInt(1001))
	assert.ErrorIs(s.T(), err, ErrTransferAmountIncorrect)
	err = s.engine.Buy(s.ctx, buyer, tokenId, nil)
	assert.ErrorIs(s.T(), err, ErrTransferAmountIncorrect)

	err = s.engine.Buy(s.ctx, buyer, tokenId, big.NewInt(1000))
	assert.Nil(s.T(), err)

	owner, err := s.nft.OwnerOf(s.ctx, tokenId)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), buyer, owner)
	assert.Len(s.T(), s.bank.transfers, 1)
	assert.Equal(s.T(), seller, s.bank.transfers[0].To)
	assert.Equal(s.T(), int64(1000), s.bank.transfers[0].Amount.Int64())
}

func (s *EngineTestSuite) TestBuyNativeAfterGasDisabled() {
	tokenId := big.NewInt(7)
	s.mintPlaceable(tokenId)
	err := s.engine.AllowGasPayments(s.ctx, admin, true)
	assert.Nil(s.T(), err)
	err = s.engine.Place(s.ctx, seller, tokenId, GasPayment, big.NewInt(1000))
	assert.Nil(s.T(), err)

	// Record stays queryable, settlement is rejected lazily
	err = s.engine.AllowGasPayments(s.ctx, admin, false)
	assert.Nil(s.T(), err)

	_, err = s.engine.Placement(s.ctx, tokenId)
	assert.Nil(s.T(), err)

	err = s.engine.Buy(s.ctx, buyer, tokenId, big.NewInt(1000))
	assert.ErrorIs(s.T(), err, ErrWrongPurchaseMethod)
}

func (s *EngineTestSuite) TestBuyWhilePaused() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc20Tok, true, false, false)
	err := s.engine.Place(s.ctx, seller, tokenId, erc20Tok, big.NewInt(1000))
	assert.Nil(s.T(), err)

	err = s.engine.Pause(s.ctx, admin)
	assert.Nil(s.T(), err)

	err = s.engine.Buy(s.ctx, buyer, tokenId, nil)
	assert.ErrorIs(s.T(), err, ErrPaused)
}

func (s *EngineTestSuite) TestTokenFallback() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc677, false, true, false)
	err := s.engine.Place(s.ctx, seller, tokenId, erc677, big.NewInt(1000))
	assert.Nil(s.T(), err)

	// The token credited the engine before notifying it
	s.token677.setBalance(market, 1000)

	err = s.engine.TokenFallback(s.ctx, erc677, buyer, big.NewInt(1000), common.BigToHash(tokenId).Bytes())
	assert.Nil(s.T(), err)

	owner, err := s.nft.OwnerOf(s.ctx, tokenId)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), buyer, owner)
	assert.Equal(s.T(), int64(1000), s.token677.balanceOf(seller).Int64())

	_, err = s.engine.Placement(s.ctx, tokenId)
	assert.ErrorIs(s.T(), err, ErrTokenNotPlaced)
}

func (s *EngineTestSuite) TestTokenFallbackOnlyFromPaymentToken() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc677, false, true, false)
	err := s.engine.Place(s.ctx, seller, tokenId, erc677, big.NewInt(1000))
	assert.Nil(s.T(), err)

	err = s.engine.TokenFallback(s.ctx, stranger, buyer, big.NewInt(1000), common.BigToHash(tokenId).Bytes())
	assert.ErrorIs(s.T(), err, ErrOnlyFromPaymentToken)
	assert.EqualError(s.T(), err, "Only from payment token.")
}

func (s *EngineTestSuite) TestTokenFallbackNotPlaced() {
	err := s.engine.TokenFallback(s.ctx, erc677, buyer, big.NewInt(1000), common.BigToHash(big.NewInt(42)).Bytes())
	assert.ErrorIs(s.T(), err, ErrTokenNotPlaced)
}

func (s *EngineTestSuite) TestTokenFallbackRailMismatch() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc677, true, false, false)
	err := s.engine.Place(s.ctx, seller, tokenId, erc677, big.NewInt(1000))
	assert.Nil(s.T(), err)

	err = s.engine.TokenFallback(s.ctx, erc677, buyer, big.NewInt(1000), common.BigToHash(tokenId).Bytes())
	assert.ErrorIs(s.T(), err, ErrWrongPurchaseMethod)

	_, err = s.engine.Placement(s.ctx, tokenId)
	assert.Nil(s.T(), err)
}

func (s *EngineTestSuite) TestTokenFallbackWrongAmount() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc677, false, true, false)
	err := s.engine.Place(s.ctx, seller, tokenId, erc677, big.NewInt(1000))
	assert.Nil(s.T(), err)

	err = s.engine.TokenFallback(s.ctx, erc677, buyer, big.NewInt(999), common.BigToHash(tokenId).Bytes())
	assert.ErrorIs(s.T(), err, ErrTransferAmountIncorrect)
}

func (s *EngineTestSuite) TestTokenFallbackWhilePaused() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc677, false, true, false)
	err := s.engine.Place(s.ctx, seller, tokenId, erc677, big.NewInt(1000))
	assert.Nil(s.T(), err)

	err = s.engine.Pause(s.ctx, admin)
	assert.Nil(s.T(), err)

	err = s.engine.TokenFallback(s.ctx, erc677, buyer, big.NewInt(1000), common.BigToHash(tokenId).Bytes())
	assert.ErrorIs(s.T(), err, ErrPaused)
}

func (s *EngineTestSuite) TestTokensReceived() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc777, false, false, true)
	err := s.engine.Place(s.ctx, seller, tokenId, erc777, big.NewInt(1000))
	assert.Nil(s.T(), err)

	s.token777.setBalance(market, 1000)

	err = s.engine.TokensReceived(s.ctx, erc777, buyer, buyer, market, big.NewInt(1000), common.BigToHash(tokenId).Bytes(), nil)
	assert.Nil(s.T(), err)

	owner, err := s.nft.OwnerOf(s.ctx, tokenId)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), buyer, owner)
	assert.Equal(s.T(), int64(1000), s.token777.balanceOf(seller).Int64())
}

func (s *EngineTestSuite) TestTokensReceivedRailMismatch() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc777, true, true, false)
	err := s.engine.Place(s.ctx, seller, tokenId, erc777, big.NewInt(1000))
	assert.Nil(s.T(), err)

	err = s.engine.TokensReceived(s.ctx, erc777, buyer, buyer, market, big.NewInt(1000), common.BigToHash(tokenId).Bytes(), nil)
	assert.ErrorIs(s.T(), err, ErrWrongPurchaseMethod)
}

func (s *EngineTestSuite) TestMixedRailTokenSettlesOnEitherRail() {
	s.whitelist(erc677, true, true, false)

	// Approve-and-pull leg
	pulled := big.NewInt(1)
	s.mintPlaceable(pulled)
	s.token677.setBalance(buyer, 1000)
	s.token677.approve(buyer, 1000)
	err := s.engine.Place(s.ctx, seller, pulled, erc677, big.NewInt(1000))
	assert.Nil(s.T(), err)

	err = s.engine.Buy(s.ctx, buyer, pulled, nil)
	assert.Nil(s.T(), err)

	owner, err := s.nft.OwnerOf(s.ctx, pulled)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), buyer, owner)

	// Notified leg of the same payment token
	pushed := big.NewInt(2)
	s.mintPlaceable(pushed)
	err = s.engine.Place(s.ctx, seller, pushed, erc677, big.NewInt(500))
	assert.Nil(s.T(), err)

	s.token677.setBalance(market, 500)

	err = s.engine.TokenFallback(s.ctx, erc677, buyer, big.NewInt(500), common.BigToHash(pushed).Bytes())
	assert.Nil(s.T(), err)

	owner, err = s.nft.OwnerOf(s.ctx, pushed)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), buyer, owner)
	assert.Equal(s.T(), int64(1500), s.token677.balanceOf(seller).Int64())
}

func (s *EngineTestSuite) TestUnplaceIdempotent() {
	err := s.engine.Unplace(s.ctx, big.NewInt(42))
	assert.Nil(s.T(), err)
}

func (s *EngineTestSuite) TestUnplaceStalePlacement() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc20Tok, true, false, false)
	err := s.engine.Place(s.ctx, seller, tokenId, erc20Tok, big.NewInt(1000))
	assert.Nil(s.T(), err)

	// Token changed hands outside the market, the record went stale but
	// stays queryable until someone cleans it up
	s.nft.mint(tokenId, stranger)
	s.nft.approve(tokenId, common.Address{})

	_, err = s.engine.Placement(s.ctx, tokenId)
	assert.Nil(s.T(), err)

	err = s.engine.Unplace(s.ctx, tokenId)
	assert.Nil(s.T(), err)

	_, err = s.engine.Placement(s.ctx, tokenId)
	assert.ErrorIs(s.T(), err, ErrTokenNotPlaced)

	events := s.ledger.Events()
	assert.Equal(s.T(), EventTokenUnplaced, events[len(events)-1].Kind)
}

func (s *EngineTestSuite) TestUnplaceWhilePaused() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc20Tok, true, false, false)
	err := s.engine.Place(s.ctx, seller, tokenId, erc20Tok, big.NewInt(1000))
	assert.Nil(s.T(), err)

	err = s.engine.Pause(s.ctx, admin)
	assert.Nil(s.T(), err)

	err = s.engine.Unplace(s.ctx, tokenId)
	assert.Nil(s.T(), err)
}

func (s *EngineTestSuite) TestStaleBuyFails() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc20Tok, true, false, false)
	s.tokenA.setBalance(buyer, 1000)
	s.tokenA.approve(buyer, 1000)
	err := s.engine.Place(s.ctx, seller, tokenId, erc20Tok, big.NewInt(1000))
	assert.Nil(s.T(), err)

	// Approval revoked after placing
	s.nft.approve(tokenId, common.Address{})

	err = s.engine.Buy(s.ctx, buyer, tokenId, nil)
	assert.ErrorIs(s.T(), err, ErrNotApprovedToTransfer)

	// Record survives the failed settlement
	_, err = s.engine.Placement(s.ctx, tokenId)
	assert.Nil(s.T(), err)

	owner, err := s.nft.OwnerOf(s.ctx, tokenId)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), seller, owner)

	// No funds moved either
	assert.Equal(s.T(), big.NewInt(1000), s.tokenA.balanceOf(buyer))
	assert.Equal(s.T(), big.NewInt(0), s.tokenA.balanceOf(seller))
	assert.Equal(s.T(), big.NewInt(0), s.tokenA.balanceOf(market))
}

func (s *EngineTestSuite) TestProbeStalePlacements() {
	monitor := monitor_market.NewMonitor()
	s.engine.WithMonitor(monitor)

	fresh := big.NewInt(1)
	stale := big.NewInt(2)
	s.mintPlaceable(fresh)
	s.mintPlaceable(stale)
	s.whitelist(erc20Tok, true, false, false)

	err := s.engine.Place(s.ctx, seller, fresh, erc20Tok, big.NewInt(100))
	assert.Nil(s.T(), err)
	err = s.engine.Place(s.ctx, seller, stale, erc20Tok, big.NewInt(100))
	assert.Nil(s.T(), err)

	s.nft.approve(stale, common.Address{})

	err = s.engine.ProbeStalePlacements(s.ctx)
	assert.Nil(s.T(), err)

	state := &monitor.GetReport().Market.State
	assert.Equal(s.T(), uint64(1), state.PlacementsActive.Load())
	assert.Equal(s.T(), uint64(1), state.PlacementsStale.Load())
}

func (s *EngineTestSuite) TestWhitelistRemovalRejectsLazily() {
	tokenId := big.NewInt(42)
	s.mintPlaceable(tokenId)
	s.whitelist(erc20Tok, true, false, false)
	s.tokenA.setBalance(buyer, 1000)
	s.tokenA.approve(buyer, 1000)
	err := s.engine.Place(s.ctx, seller, tokenId, erc20Tok, big.NewInt(1000))
	assert.Nil(s.T(), err)

	s.whitelist(erc20Tok, false, false, false)

	_, err = s.engine.Placement(s.ctx, tokenId)
	assert.Nil(s.T(), err)

	err = s.engine.Buy(s.ctx, buyer, tokenId, nil)
	assert.ErrorIs(s.T(), err, ErrWrongPurchaseMethod)
}
