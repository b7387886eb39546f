package model

const TableMarketState = "market_state"

// Primary key of the singleton row, seeded by the migrations
const MarketStateId = 1

// Singleton row holding the engine's mutable configuration.
// Replaces the constructor-set storage of the on-chain version, the
// Initialized flag guards the one-time initializer.
type MarketState struct {
	// Id always equals one
	Id int

	Initialized bool

	// Address of the managed ERC-721 token
	NftToken string

	// Current administrator
	Owner string

	Paused     bool
	GasAllowed bool
}

func (MarketState) TableName() string {
	return TableMarketState
}
