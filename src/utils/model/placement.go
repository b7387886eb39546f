package model

import (
	"github.com/jackc/pgtype"
)

const TablePlacement = "placements"

// Active sale listing for one token. At most one row per token id.
type Placement struct {
	TokenId      string `gorm:"primaryKey"`
	PaymentToken string
	Cost         pgtype.Numeric
}

func (Placement) TableName() string {
	return TablePlacement
}
