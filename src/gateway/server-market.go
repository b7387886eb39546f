package gateway

import (
	"errors"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	"github.com/rif-marketplace/placements/src/gateway/request"
	"github.com/rif-marketplace/placements/src/gateway/response"
	"github.com/rif-marketplace/placements/src/placements"
	. "github.com/rif-marketplace/placements/src/utils/logger"
)

var ErrBadAddress = errors.New("malformed address")
var ErrBadAmount = errors.New("malformed amount")
var ErrBadTokenId = errors.New("malformed token id")

func (self *Server) onGetState(c *gin.Context) {
	self.served()

	token, err := self.engine.Token(c.Request.Context())
	if err != nil {
		self.failed(c, err)
		return
	}
	owner, err := self.engine.Owner(c.Request.Context())
	if err != nil {
		self.failed(c, err)
		return
	}
	paused, err := self.engine.Paused(c.Request.Context())
	if err != nil {
		self.failed(c, err)
		return
	}
	gasAllowed, err := self.engine.IsGasPaymentAllowed(c.Request.Context())
	if err != nil {
		self.failed(c, err)
		return
	}

	c.JSON(http.StatusOK, &response.State{
		NftToken:   token.Hex(),
		Owner:      owner.Hex(),
		Paused:     paused,
		GasAllowed: gasAllowed,
	})
}

func (self *Server) onInitialize(c *gin.Context) {
	self.served()

	var in request.Initialize
	if err := c.ShouldBindJSON(&in); err != nil {
		self.badRequest(c, err)
		return
	}
	nftToken, err := parseAddress(in.NftToken)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	owner, err := parseAddress(in.Owner)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	err = self.engine.Initialize(c.Request.Context(), nftToken, owner)
	if err != nil {
		self.failed(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (self *Server) onGetPlacement(c *gin.Context) {
	self.served()

	tokenId, err := parseTokenId(c.Param("tokenId"))
	if err != nil {
		self.badRequest(c, err)
		return
	}

	key := tokenId.String()
	if cached, ok := self.placementCache.Get(key); ok {
		if self.monitor != nil {
			self.monitor.GetReport().Gateway.State.PlacementCacheHits.Inc()
		}
		c.JSON(http.StatusOK, cached)
		return
	}

	record, err := self.engine.Placement(c.Request.Context(), tokenId)
	if err != nil {
		self.failed(c, err)
		return
	}

	out := response.PlacementToResponse(record)
	self.placementCache.SetDefault(key, out)
	c.JSON(http.StatusOK, out)
}

func (self *Server) onListPlacements(c *gin.Context) {
	self.served()

	records, err := self.engine.Placements(c.Request.Context())
	if err != nil {
		self.failed(c, err)
		return
	}

	out := response.Placements{Placements: make([]response.Placement, len(records))}
	for i, record := range records {
		out.Placements[i] = *response.PlacementToResponse(record)
	}
	c.JSON(http.StatusOK, &out)
}

func (self *Server) onPlace(c *gin.Context) {
	self.served()

	var in request.Place
	if err := c.ShouldBindJSON(&in); err != nil {
		self.badRequest(c, err)
		return
	}
	caller, err := parseAddress(in.Caller)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	paymentToken, err := parseOptionalAddress(in.PaymentToken)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	tokenId, err := parseTokenId(in.TokenId)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	cost, err := parseAmount(in.Cost)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	err = self.engine.Place(c.Request.Context(), caller, tokenId, paymentToken, cost)
	if err != nil {
		self.failed(c, err)
		return
	}
	self.placementCache.Delete(tokenId.String())
	c.Status(http.StatusCreated)
}

func (self *Server) onUnplace(c *gin.Context) {
	self.served()

	tokenId, err := parseTokenId(c.Param("tokenId"))
	if err != nil {
		self.badRequest(c, err)
		return
	}

	err = self.engine.Unplace(c.Request.Context(), tokenId)
	if err != nil {
		self.failed(c, err)
		return
	}
	self.placementCache.Delete(tokenId.String())
	c.Status(http.StatusOK)
}

func (self *Server) onBuy(c *gin.Context) {
	self.served()

	var in request.Buy
	if err := c.ShouldBindJSON(&in); err != nil {
		self.badRequest(c, err)
		return
	}
	caller, err := parseAddress(in.Caller)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	tokenId, err := parseTokenId(in.TokenId)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	var value *big.Int
	if in.Value != "" {
		value, err = parseAmount(in.Value)
		if err != nil {
			self.badRequest(c, err)
			return
		}
	}

	err = self.engine.Buy(c.Request.Context(), caller, tokenId, value)
	if err != nil {
		self.failed(c, err)
		return
	}
	self.placementCache.Delete(tokenId.String())
	c.Status(http.StatusOK)
}

func (self *Server) onTokenFallback(c *gin.Context) {
	self.served()

	var in request.TokenFallback
	if err := c.ShouldBindJSON(&in); err != nil {
		self.badRequest(c, err)
		return
	}
	caller, err := parseAddress(in.Caller)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	from, err := parseAddress(in.From)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	amount, err := parseAmount(in.Amount)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	data, err := hexutil.Decode(in.Data)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	err = self.engine.TokenFallback(c.Request.Context(), caller, from, amount, data)
	if err != nil {
		self.failed(c, err)
		return
	}
	self.placementCache.Delete(new(big.Int).SetBytes(data).String())
	c.Status(http.StatusOK)
}

func (self *Server) onTokensReceived(c *gin.Context) {
	self.served()

	var in request.TokensReceived
	if err := c.ShouldBindJSON(&in); err != nil {
		self.badRequest(c, err)
		return
	}
	caller, err := parseAddress(in.Caller)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	operator, err := parseOptionalAddress(in.Operator)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	from, err := parseAddress(in.From)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	to, err := parseOptionalAddress(in.To)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	amount, err := parseAmount(in.Amount)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	userData, err := hexutil.Decode(in.UserData)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	var operatorData []byte
	if in.OperatorData != "" {
		operatorData, err = hexutil.Decode(in.OperatorData)
		if err != nil {
			self.badRequest(c, err)
			return
		}
	}

	err = self.engine.TokensReceived(c.Request.Context(), caller, operator, from, to, amount, userData, operatorData)
	if err != nil {
		self.failed(c, err)
		return
	}
	self.placementCache.Delete(new(big.Int).SetBytes(userData).String())
	c.Status(http.StatusOK)
}

func (self *Server) onGetWhitelisted(c *gin.Context) {
	self.served()

	paymentToken, err := parseAddress(c.Param("paymentToken"))
	if err != nil {
		self.badRequest(c, err)
		return
	}

	entry, err := self.engine.WhitelistedPaymentToken(c.Request.Context(), paymentToken)
	if err != nil {
		self.failed(c, err)
		return
	}
	c.JSON(http.StatusOK, response.WhitelistedToResponse(&entry))
}

func (self *Server) onSetWhitelisted(c *gin.Context) {
	self.served()

	var in request.SetWhitelisted
	if err := c.ShouldBindJSON(&in); err != nil {
		self.badRequest(c, err)
		return
	}
	caller, err := parseAddress(in.Caller)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	paymentToken, err := parseAddress(in.PaymentToken)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	err = self.engine.SetWhitelistedPaymentToken(c.Request.Context(), caller, paymentToken, in.IsERC20, in.IsERC677, in.IsERC777)
	if err != nil {
		self.failed(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (self *Server) onAllowGasPayments(c *gin.Context) {
	self.served()

	var in request.AllowGasPayments
	if err := c.ShouldBindJSON(&in); err != nil {
		self.badRequest(c, err)
		return
	}
	caller, err := parseAddress(in.Caller)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	err = self.engine.AllowGasPayments(c.Request.Context(), caller, in.Allowance)
	if err != nil {
		self.failed(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (self *Server) onSetPaused(c *gin.Context) {
	self.served()

	var in request.SetPaused
	if err := c.ShouldBindJSON(&in); err != nil {
		self.badRequest(c, err)
		return
	}
	caller, err := parseAddress(in.Caller)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	if in.Paused {
		err = self.engine.Pause(c.Request.Context(), caller)
	} else {
		err = self.engine.Unpause(c.Request.Context(), caller)
	}
	if err != nil {
		self.failed(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (self *Server) onTransferOwnership(c *gin.Context) {
	self.served()

	var in request.TransferOwnership
	if err := c.ShouldBindJSON(&in); err != nil {
		self.badRequest(c, err)
		return
	}
	caller, err := parseAddress(in.Caller)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	newOwner, err := parseAddress(in.NewOwner)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	err = self.engine.TransferOwnership(c.Request.Context(), caller, newOwner)
	if err != nil {
		self.failed(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (self *Server) served() {
	if self.monitor != nil {
		self.monitor.GetReport().Gateway.State.RequestsServed.Inc()
	}
}

func (self *Server) badRequest(c *gin.Context, err error) {
	if self.monitor != nil {
		self.monitor.GetReport().Gateway.Errors.BadRequest.Inc()
	}
	LOGE(c, err, http.StatusBadRequest).Error("Failed to parse request")
}

// failed maps engine rejections to response codes. Unknown errors count
// as storage failures.
func (self *Server) failed(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, placements.ErrTokenNotPlaced):
		status = http.StatusNotFound
	case errors.Is(err, placements.ErrCallerNotOwner),
		errors.Is(err, placements.ErrNotApprovedOrOwner),
		errors.Is(err, placements.ErrNotApprovedToTransfer),
		errors.Is(err, placements.ErrOnlyFromPaymentToken):
		status = http.StatusForbidden
	case errors.Is(err, placements.ErrPaymentTokenNotAllowed),
		errors.Is(err, placements.ErrNewOwnerZeroAddress),
		errors.Is(err, placements.ErrZeroCost),
		errors.Is(err, placements.ErrWrongPurchaseMethod),
		errors.Is(err, placements.ErrTransferAmountIncorrect):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, placements.ErrPaused),
		errors.Is(err, placements.ErrNotPaused),
		errors.Is(err, placements.ErrAlreadyInitialized),
		errors.Is(err, placements.ErrNotInitialized):
		status = http.StatusConflict
	default:
		if self.monitor != nil {
			self.monitor.GetReport().Gateway.Errors.DbError.Inc()
		}
	}
	LOGE(c, err, status).Warn("Market operation rejected")
}

func parseAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, ErrBadAddress
	}
	return common.HexToAddress(value), nil
}

// parseOptionalAddress treats an empty string as the zero address, used
// where the native currency sentinel is a valid input.
func parseOptionalAddress(value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, nil
	}
	return parseAddress(value)
}

func parseAmount(value string) (*big.Int, error) {
	out, ok := new(big.Int).SetString(value, 10)
	if !ok || out.Sign() < 0 {
		return nil, ErrBadAmount
	}
	return out, nil
}

// parseTokenId accepts decimal or 0x-prefixed hex.
func parseTokenId(value string) (*big.Int, error) {
	if strings.HasPrefix(value, "0x") {
		out, err := hexutil.DecodeBig(value)
		if err != nil {
			return nil, ErrBadTokenId
		}
		return out, nil
	}
	out, ok := new(big.Int).SetString(value, 10)
	if !ok || out.Sign() < 0 {
		return nil, ErrBadTokenId
	}
	return out, nil
}
