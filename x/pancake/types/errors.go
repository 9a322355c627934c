package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrDepositsClosed         = errors.Register(ModuleName, 2, "deposits are closed")
	ErrAlreadyKickedOff       = errors.Register(ModuleName, 3, "pool already kicked off")
	ErrLockupNotElapsed       = errors.Register(ModuleName, 4, "lockup period has not elapsed")
	ErrInsufficientBalance    = errors.Register(ModuleName, 5, "insufficient balance")
	ErrInsufficientAllowance  = errors.Register(ModuleName, 6, "insufficient allowance")
	ErrReserveExhausted       = errors.Register(ModuleName, 7, "payout exceeds eth reserve")
	ErrUnauthorized           = errors.Register(ModuleName, 8, "unauthorized")
	ErrFeedUnavailable        = errors.Register(ModuleName, 9, "price feed unavailable")
	ErrConverterFailed        = errors.Register(ModuleName, 10, "conversion to eth failed")

	// Lifecycle errors
	ErrWithdrawalsClosed = errors.Register(ModuleName, 20, "withdrawals are not enabled")
	ErrTierEmpty         = errors.Register(ModuleName, 21, "tier has no deposits")
	ErrPoolNotFound      = errors.Register(ModuleName, 22, "pool not initialized")
	ErrPoolExists        = errors.Register(ModuleName, 23, "pool already initialized")

	// Validation errors
	ErrInvalidAmount = errors.Register(ModuleName, 30, "invalid amount")
	ErrInvalidTier   = errors.Register(ModuleName, 31, "invalid tier")
	ErrInvalidAsset  = errors.Register(ModuleName, 32, "invalid asset")
	ErrInvalidParams = errors.Register(ModuleName, 33, "invalid params")
	ErrInvalidRate   = errors.Register(ModuleName, 34, "invalid rate")
)
