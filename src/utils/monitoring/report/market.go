package report

import (
	"go.uber.org/atomic"
)

type MarketErrors struct {
	NotOwner                atomic.Uint64 `json:"not_owner"`
	NotApprovedOrOwner      atomic.Uint64 `json:"not_approved_or_owner"`
	NotApprovedToTransfer   atomic.Uint64 `json:"not_approved_to_transfer"`
	OnlyFromPaymentToken    atomic.Uint64 `json:"only_from_payment_token"`
	TokenNotPlaced          atomic.Uint64 `json:"token_not_placed"`
	PaymentTokenNotAllowed  atomic.Uint64 `json:"payment_token_not_allowed"`
	ZeroCost                atomic.Uint64 `json:"zero_cost"`
	Paused                  atomic.Uint64 `json:"paused"`
	WrongPurchaseMethod     atomic.Uint64 `json:"wrong_purchase_method"`
	TransferAmountIncorrect atomic.Uint64 `json:"transfer_amount_incorrect"`
	AssetTransfer           atomic.Uint64 `json:"asset_transfer"`
	DbError                 atomic.Uint64 `json:"db"`
}

type MarketState struct {
	PlacementsCreated atomic.Uint64 `json:"placements_created"`
	PlacementsRemoved atomic.Uint64 `json:"placements_removed"`
	TokensSold        atomic.Uint64 `json:"tokens_sold"`
	GasPurchases      atomic.Uint64 `json:"gas_purchases"`
	TokenPurchases    atomic.Uint64 `json:"token_purchases"`
	EventsPublished   atomic.Uint64 `json:"events_published"`

	// Read-only stale placement probe
	PlacementsActive atomic.Uint64 `json:"placements_active"`
	PlacementsStale  atomic.Uint64 `json:"placements_stale"`

	AverageSalesPerMinute atomic.Float64 `json:"average_sales_per_minute"`
}

type MarketReport struct {
	State  MarketState  `json:"state"`
	Errors MarketErrors `json:"errors"`
}
