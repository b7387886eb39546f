package model

import (
	"time"

	"github.com/jackc/pgtype"
)

const TableMarketEvent = "market_events"

// Emitted engine events, appended in the same transaction as the state
// change they describe.
type MarketEvent struct {
	Id           string `gorm:"primaryKey"`
	Kind         string
	TokenId      pgtype.Varchar
	PaymentToken pgtype.Varchar
	Cost         pgtype.Numeric
	NewOwner     pgtype.Varchar
	IsERC20      bool `gorm:"column:is_erc20"`
	IsERC677     bool `gorm:"column:is_erc677"`
	IsERC777     bool `gorm:"column:is_erc777"`
	CreatedAt    time.Time
}

func (MarketEvent) TableName() string {
	return TableMarketEvent
}
