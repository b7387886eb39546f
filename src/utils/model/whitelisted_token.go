package model

const TableWhitelistedToken = "whitelisted_tokens"

type WhitelistedToken struct {
	PaymentToken string `gorm:"primaryKey"`

	// Purchase rails the token is accepted on
	IsERC20  bool `gorm:"column:is_erc20"`
	IsERC677 bool `gorm:"column:is_erc677"`
	IsERC777 bool `gorm:"column:is_erc777"`
}

func (WhitelistedToken) TableName() string {
	return TableWhitelistedToken
}
