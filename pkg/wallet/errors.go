package wallet

import (
	"errors"

	"github.com/chris/tournament-wallet/pkg/storage"
)

// ErrAmountInvalid is returned when an amount is zero or negative.
var ErrAmountInvalid = errors.New("amount must be positive")

// ErrInvalidTransactionType is returned when a credit type is debited or vice versa.
var ErrInvalidTransactionType = errors.New("invalid transaction type for operation")

// ErrInsufficientBalance is returned when a debit exceeds the balance. Nothing was written.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrDuplicateTransaction is returned when the transaction ID was already used.
// Nothing was written by the rejected call.
var ErrDuplicateTransaction = storage.ErrDuplicateTransaction

// ErrBalanceLimitExceeded is returned when a credit would take the balance past
// the largest representable amount. Nothing was written.
var ErrBalanceLimitExceeded = storage.ErrBalanceLimit

// ErrBalanceUnavailable is returned when the movement was recorded but the new
// balance could not be read. Callers must treat the movement as applied.
var ErrBalanceUnavailable = storage.ErrBalanceUnavailable
