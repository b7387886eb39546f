package response

import (
	"github.com/rif-marketplace/placements/src/placements"
)

type Placement struct {
	TokenId      string `json:"token_id"`
	PaymentToken string `json:"payment_token"`
	Cost         string `json:"cost"`
}

type Placements struct {
	Placements []Placement `json:"placements"`
}

type Whitelisted struct {
	PaymentToken string `json:"payment_token"`
	IsERC20      bool   `json:"is_erc20"`
	IsERC677     bool   `json:"is_erc677"`
	IsERC777     bool   `json:"is_erc777"`
}

type State struct {
	NftToken   string `json:"nft_token"`
	Owner      string `json:"owner"`
	Paused     bool   `json:"paused"`
	GasAllowed bool   `json:"gas_allowed"`
}

func PlacementToResponse(record *placements.Record) *Placement {
	return &Placement{
		TokenId:      record.TokenId.String(),
		PaymentToken: record.PaymentToken.Hex(),
		Cost:         record.Cost.String(),
	}
}

func WhitelistedToResponse(entry *placements.Whitelist) *Whitelisted {
	return &Whitelisted{
		PaymentToken: entry.PaymentToken.Hex(),
		IsERC20:      entry.IsERC20,
		IsERC677:     entry.IsERC677,
		IsERC777:     entry.IsERC777,
	}
}
