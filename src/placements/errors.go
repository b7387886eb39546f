package placements

import "errors"

// Rejection reasons. The literal strings are part of the public surface,
// clients and tests match on them verbatim.
var (
	ErrAlreadyInitialized      = errors.New("Contract instance has already been initialized")
	ErrNotInitialized          = errors.New("Contract instance has not been initialized")
	ErrCallerNotOwner          = errors.New("Ownable: caller is not the owner")
	ErrNewOwnerZeroAddress     = errors.New("Ownable: new owner is the zero address")
	ErrPaused                  = errors.New("Pausable: paused")
	ErrNotPaused               = errors.New("Pausable: not paused")
	ErrTokenNotPlaced          = errors.New("Token not placed.")
	ErrPaymentTokenNotAllowed  = errors.New("Payment token not allowed.")
	ErrNotApprovedToTransfer   = errors.New("Not approved to transfer.")
	ErrNotApprovedOrOwner      = errors.New("Not approved or owner.")
	ErrZeroCost                = errors.New("Cost should be greater than zero.")
	ErrWrongPurchaseMethod     = errors.New("Wrong purchase method.")
	ErrTransferAmountIncorrect = errors.New("Transfer amount is not correct.")
	ErrOnlyFromPaymentToken    = errors.New("Only from payment token.")
)
