package eth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/rif-marketplace/placements/src/utils/config"
	"github.com/rif-marketplace/placements/src/utils/logger"
)

// Client wraps the RPC connection and the engine's signing key. All
// contract adapters in this package go through it.
type Client struct {
	Log *logrus.Entry

	config  config.Eth
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	address common.Address
	chainId *big.Int

	// Serializes transactions, nonces are assigned in order
	mtx sync.Mutex
}

func NewClient(config *config.Config) (self *Client, err error) {
	self = new(Client)
	self.Log = logger.NewSublogger("eth-client")
	self.config = config.Eth
	self.chainId = big.NewInt(config.Eth.ChainId)

	self.client, err = ethclient.Dial(config.Eth.RpcProviderUrl)
	if err != nil {
		self.Log.WithError(err).Error("Failed to connect to the RPC provider")
		return nil, err
	}

	self.key, err = crypto.HexToECDSA(strings.TrimPrefix(config.Eth.PrivateKey, "0x"))
	if err != nil {
		return nil, err
	}
	self.address = crypto.PubkeyToAddress(self.key.PublicKey)
	return
}

// Address of the signing account.
func (self *Client) Address() common.Address {
	return self.address
}

func (self *Client) Close() {
	self.client.Close()
}

func (self *Client) call(ctx context.Context, to common.Address, contractAbi *abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractAbi.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, self.config.CallTimeout)
	defer cancel()

	out, err := self.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	return contractAbi.Unpack(method, out)
}

// transact signs, sends and waits for one transaction. A reverted receipt
// is an error, the caller treats the state change as not having happened.
func (self *Client) transact(ctx context.Context, to common.Address, value *big.Int, data []byte) (err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	nonce, err := self.client.PendingNonceAt(ctx, self.address)
	if err != nil {
		return
	}
	gasPrice, err := self.client.SuggestGasPrice(ctx)
	if err != nil {
		return
	}
	gas, err := self.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  self.address,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(self.chainId), self.key)
	if err != nil {
		return
	}

	err = self.client.SendTransaction(ctx, signed)
	if err != nil {
		self.Log.WithError(err).WithField("to", to.Hex()).Error("Failed to send transaction")
		return
	}

	receipt, err := bind.WaitMined(ctx, self.client, signed)
	if err != nil {
		return
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		self.Log.WithField("tx", signed.Hash().Hex()).Error("Transaction reverted")
		return errors.New("transaction reverted")
	}
	return nil
}

func mustParseAbi(definition string) abi.ABI {
	out, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(err)
	}
	return out
}
