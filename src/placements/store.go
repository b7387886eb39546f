package placements

import (
	"context"
	"database/sql"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jackc/pgtype"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rif-marketplace/placements/src/utils/model"
)

// Store is the postgres Ledger. Each Update maps to one database
// transaction, rollback on error gives the all-or-nothing guarantee.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (self *Store) View(ctx context.Context, f func(tx LedgerTx) error) error {
	return self.db.WithContext(ctx).
		Transaction(func(dbTx *gorm.DB) error {
			return f(&storeTx{db: dbTx})
		}, &sql.TxOptions{ReadOnly: true})
}

func (self *Store) Update(ctx context.Context, f func(tx LedgerTx) error) error {
	return self.db.WithContext(ctx).
		Transaction(func(dbTx *gorm.DB) error {
			return f(&storeTx{db: dbTx})
		})
}

type storeTx struct {
	db *gorm.DB
}

func (self *storeTx) GetState() (*State, error) {
	var row model.MarketState
	err := self.db.First(&row, "id = ?", model.MarketStateId).Error
	if err != nil {
		return nil, err
	}
	return &State{
		Initialized: row.Initialized,
		NftToken:    common.HexToAddress(row.NftToken),
		Owner:       common.HexToAddress(row.Owner),
		Paused:      row.Paused,
		GasAllowed:  row.GasAllowed,
	}, nil
}

func (self *storeTx) SetState(state *State) error {
	return self.db.Model(&model.MarketState{Id: model.MarketStateId}).
		Updates(map[string]interface{}{
			"initialized": state.Initialized,
			"nft_token":   state.NftToken.Hex(),
			"owner":       state.Owner.Hex(),
			"paused":      state.Paused,
			"gas_allowed": state.GasAllowed,
		}).
		Error
}

func (self *storeTx) GetPlacement(tokenId *big.Int) (*Record, error) {
	var row model.Placement
	err := self.db.First(&row, "token_id = ?", tokenKey(tokenId)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return recordFromRow(&row)
}

func (self *storeTx) SetPlacement(record *Record) error {
	cost, err := numericFromBig(record.Cost)
	if err != nil {
		return err
	}
	row := model.Placement{
		TokenId:      tokenKey(record.TokenId),
		PaymentToken: record.PaymentToken.Hex(),
		Cost:         cost,
	}
	return self.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_id"}},
		UpdateAll: true,
	}).
		Create(&row).
		Error
}

func (self *storeTx) DeletePlacement(tokenId *big.Int) (bool, error) {
	result := self.db.Delete(&model.Placement{}, "token_id = ?", tokenKey(tokenId))
	return result.RowsAffected > 0, result.Error
}

func (self *storeTx) ListPlacements() (out []*Record, err error) {
	var rows []model.Placement
	err = self.db.Find(&rows).Error
	if err != nil {
		return
	}
	for i := range rows {
		record, err := recordFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return
}

func (self *storeTx) GetWhitelist(paymentToken common.Address) (*Whitelist, error) {
	var row model.WhitelistedToken
	err := self.db.First(&row, "payment_token = ?", paymentToken.Hex()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Whitelist{
		PaymentToken: common.HexToAddress(row.PaymentToken),
		IsERC20:      row.IsERC20,
		IsERC677:     row.IsERC677,
		IsERC777:     row.IsERC777,
	}, nil
}

func (self *storeTx) SetWhitelist(entry *Whitelist) error {
	row := model.WhitelistedToken{
		PaymentToken: entry.PaymentToken.Hex(),
		IsERC20:      entry.IsERC20,
		IsERC677:     entry.IsERC677,
		IsERC777:     entry.IsERC777,
	}
	return self.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_token"}},
		UpdateAll: true,
	}).
		Create(&row).
		Error
}

func (self *storeTx) DeleteWhitelist(paymentToken common.Address) error {
	return self.db.Delete(&model.WhitelistedToken{}, "payment_token = ?", paymentToken.Hex()).Error
}

func (self *storeTx) AppendEvent(event *Event) error {
	row := model.MarketEvent{
		Id:        event.Id,
		Kind:      string(event.Kind),
		CreatedAt: event.CreatedAt,
	}
	if event.TokenId != nil {
		row.TokenId = varchar(tokenKey(event.TokenId))
	} else {
		row.TokenId = nullVarchar()
	}
	if event.PaymentToken != nil {
		row.PaymentToken = varchar(event.PaymentToken.Hex())
	} else {
		row.PaymentToken = nullVarchar()
	}
	if event.NewOwner != nil {
		row.NewOwner = varchar(event.NewOwner.Hex())
	} else {
		row.NewOwner = nullVarchar()
	}
	if event.Cost != nil {
		cost, err := numericFromBig(event.Cost)
		if err != nil {
			return err
		}
		row.Cost = cost
	} else {
		row.Cost = pgtype.Numeric{Status: pgtype.Null}
	}
	if event.IsERC20 != nil {
		row.IsERC20 = *event.IsERC20
	}
	if event.IsERC677 != nil {
		row.IsERC677 = *event.IsERC677
	}
	if event.IsERC777 != nil {
		row.IsERC777 = *event.IsERC777
	}
	return self.db.Create(&row).Error
}

// tokenKey is the canonical column encoding of a token id.
func tokenKey(tokenId *big.Int) string {
	return hexutil.EncodeBig(tokenId)
}

func recordFromRow(row *model.Placement) (*Record, error) {
	tokenId, err := hexutil.DecodeBig(row.TokenId)
	if err != nil {
		return nil, err
	}
	cost, err := bigFromNumeric(row.Cost)
	if err != nil {
		return nil, err
	}
	return &Record{
		TokenId:      tokenId,
		PaymentToken: common.HexToAddress(row.PaymentToken),
		Cost:         cost,
	}, nil
}

func numericFromBig(value *big.Int) (out pgtype.Numeric, err error) {
	err = out.Set(value.String())
	return
}

func bigFromNumeric(value pgtype.Numeric) (*big.Int, error) {
	if value.Status != pgtype.Present {
		return nil, errors.New("numeric value is null")
	}
	out := new(big.Int).Set(value.Int)
	for i := int32(0); i < value.Exp; i++ {
		out.Mul(out, big.NewInt(10))
	}
	return out, nil
}

func varchar(value string) pgtype.Varchar {
	return pgtype.Varchar{String: value, Status: pgtype.Present}
}

func nullVarchar() pgtype.Varchar {
	return pgtype.Varchar{Status: pgtype.Null}
}
