package request

type Initialize struct {
	NftToken string `json:"nft_token" binding:"required"`
	Owner    string `json:"owner" binding:"required"`
}

type Place struct {
	Caller       string `json:"caller" binding:"required"`
	TokenId      string `json:"token_id" binding:"required"`
	PaymentToken string `json:"payment_token"`
	Cost         string `json:"cost" binding:"required"`
}

type Buy struct {
	Caller  string `json:"caller" binding:"required"`
	TokenId string `json:"token_id" binding:"required"`

	// Native currency attached to the call, decimal string, empty for none
	Value string `json:"value"`
}

type TokenFallback struct {
	Caller string `json:"caller" binding:"required"`
	From   string `json:"from" binding:"required"`
	Amount string `json:"amount" binding:"required"`

	// Big-endian token id, hex encoded with 0x prefix
	Data string `json:"data" binding:"required"`
}

type TokensReceived struct {
	Caller   string `json:"caller" binding:"required"`
	Operator string `json:"operator"`
	From     string `json:"from" binding:"required"`
	To       string `json:"to"`
	Amount   string `json:"amount" binding:"required"`

	// Big-endian token id, hex encoded with 0x prefix
	UserData     string `json:"user_data" binding:"required"`
	OperatorData string `json:"operator_data"`
}

type SetWhitelisted struct {
	Caller       string `json:"caller" binding:"required"`
	PaymentToken string `json:"payment_token" binding:"required"`
	IsERC20      bool   `json:"is_erc20"`
	IsERC677     bool   `json:"is_erc677"`
	IsERC777     bool   `json:"is_erc777"`
}

type AllowGasPayments struct {
	Caller    string `json:"caller" binding:"required"`
	Allowance bool   `json:"allowance"`
}

type SetPaused struct {
	Caller string `json:"caller" binding:"required"`
	Paused bool   `json:"paused"`
}

type TransferOwnership struct {
	Caller   string `json:"caller" binding:"required"`
	NewOwner string `json:"new_owner" binding:"required"`
}
