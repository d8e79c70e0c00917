package recharge

import "errors"

var (
	ErrUnauthenticated    = errors.New("user not authenticated")
	ErrBalanceUnavailable = errors.New("balance unavailable")
	ErrCheckoutNotReady   = errors.New("checkout not ready")
	ErrNothingToPay       = errors.New("nothing to pay")
	ErrInvalidSignature   = errors.New("invalid payment signature")
	ErrOrderNotFound      = errors.New("recharge order not found")
	ErrOrderMismatch      = errors.New("recharge order belongs to another user")
	ErrPaymentInProgress  = errors.New("payment is already being applied")
	ErrApplyFailed        = errors.New("failed to apply recharge")
)
