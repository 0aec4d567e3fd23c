package storage

import (
	"context"
	"time"

	"github.com/chris/tournament-wallet/pkg/models"
)

// AccountStore defines the interface for reading and creating accounts.
type AccountStore interface {
	// GetAccount retrieves a user's account. Returns ErrAccountNotFound if absent.
	GetAccount(ctx context.Context, userID string) (*models.Account, error)

	// CreateAccount creates a zero-balance account. Returns ErrAccountExists if present.
	CreateAccount(ctx context.Context, userID string) (*models.Account, error)
}

// TransactionReader defines the interface for reading ledger transactions.
type TransactionReader interface {
	// GetTransaction retrieves a transaction by its ID.
	GetTransaction(ctx context.Context, txID string) (*models.Transaction, error)

	// ListTransactionsByUserID retrieves a user's transactions, most recent first.
	ListTransactionsByUserID(ctx context.Context, userID string, limit int32) ([]models.Transaction, error)

	// ListTransactionsByType retrieves transactions of one type created in [from, to], both ends inclusive.
	ListTransactionsByType(ctx context.Context, txType models.TransactionType, from, to time.Time) ([]models.Transaction, error)

	// ListTournamentCharges retrieves a user's entry fee transactions for one tournament, oldest first.
	ListTournamentCharges(ctx context.Context, userID, tournamentID string) ([]models.Transaction, error)
}

// LedgerWriter applies transactions to accounts. Each call is a single atomic
// write that updates the balance and appends the transaction together.
type LedgerWriter interface {
	// ApplyDebit subtracts -tx.Amount from the balance only if the balance covers it.
	// Returns ErrInsufficientFunds or ErrDuplicateTransaction without changing state.
	ApplyDebit(ctx context.Context, tx *models.Transaction) (*models.Account, error)

	// ApplyCredit adds tx.Amount to the balance, creating the account if needed.
	// Returns ErrDuplicateTransaction without changing state if tx.Id was used before,
	// or ErrBalanceLimit if the balance or a running total would exceed math.MaxInt64.
	ApplyCredit(ctx context.Context, tx *models.Transaction) (*models.Account, error)
}

// LedgerStore combines account, transaction and writer interfaces.
type LedgerStore interface {
	AccountStore
	TransactionReader
	LedgerWriter
}
