// Package memory provides an in-process Storage with the same atomic contracts as
// the DynamoDB store. Every conditional write evaluates its predicate and applies
// its mutation under one lock, the way DynamoDB does for a single item or transaction.
package memory

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/storage"
)

type registrationKey struct {
	tournamentID string
	userID       string
}

// Store is a Storage kept in process memory.
type Store struct {
	mu            sync.Mutex
	accounts      map[string]*models.Account
	transactions  map[string]*models.Transaction
	tournaments   map[string]*models.Tournament
	registrations map[registrationKey]*models.Registration
	now           func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts:      make(map[string]*models.Account),
		transactions:  make(map[string]*models.Transaction),
		tournaments:   make(map[string]*models.Tournament),
		registrations: make(map[registrationKey]*models.Registration),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

var _ storage.Storage = (*Store)(nil)

func (s *Store) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("account for user ID %s: %w", userID, storage.ErrAccountNotFound)
	}
	copied := *account
	return &copied, nil
}

func (s *Store) CreateAccount(ctx context.Context, userID string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[userID]; ok {
		return nil, fmt.Errorf("account for user ID %s: %w", userID, storage.ErrAccountExists)
	}
	now := s.now()
	account := &models.Account{UserId: userID, CreatedAt: now, UpdatedAt: now}
	s.accounts[userID] = account
	copied := *account
	return &copied, nil
}

func (s *Store) ApplyDebit(ctx context.Context, tx *models.Transaction) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tx.Amount >= 0 {
		return nil, fmt.Errorf("debit transaction %s must carry a negative amount, got %d", tx.Id, tx.Amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[tx.Id]; ok {
		return nil, storage.ErrDuplicateTransaction
	}
	account, ok := s.accounts[tx.UserId]
	if !ok || account.Balance < -tx.Amount {
		return nil, storage.ErrInsufficientFunds
	}

	s.apply(account, tx)
	copied := *account
	return &copied, nil
}

func (s *Store) ApplyCredit(ctx context.Context, tx *models.Transaction) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tx.Amount <= 0 {
		return nil, fmt.Errorf("credit transaction %s must carry a positive amount, got %d", tx.Id, tx.Amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[tx.Id]; ok {
		return nil, storage.ErrDuplicateTransaction
	}
	account, ok := s.accounts[tx.UserId]
	if ok && exceedsLimit(account, tx) {
		return nil, storage.ErrBalanceLimit
	}
	if !ok {
		account = &models.Account{UserId: tx.UserId, CreatedAt: tx.CreatedAt}
		s.accounts[tx.UserId] = account
	}

	s.apply(account, tx)
	copied := *account
	return &copied, nil
}

// exceedsLimit reports whether crediting tx would overflow the balance or the
// running total it feeds.
func exceedsLimit(account *models.Account, tx *models.Transaction) bool {
	headroom := math.MaxInt64 - tx.Amount
	if account.Balance > headroom {
		return true
	}
	switch tx.Type {
	case models.DEPOSIT:
		return account.TotalDeposited > headroom
	case models.PRIZE:
		return account.TotalWon > headroom
	}
	return false
}

// apply mutates the account and appends the transaction. Callers hold s.mu.
func (s *Store) apply(account *models.Account, tx *models.Transaction) {
	account.Balance += tx.Amount
	switch tx.Type {
	case models.DEPOSIT:
		account.TotalDeposited += tx.Amount
	case models.WITHDRAW:
		account.TotalWithdrawn += -tx.Amount
	case models.PRIZE:
		account.TotalWon += tx.Amount
	}
	account.Version++
	account.UpdatedAt = tx.CreatedAt

	stored := *tx
	stored.Metadata = cloneMetadata(tx.Metadata)
	s.transactions[tx.Id] = &stored
}

func cloneMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[txID]
	if !ok {
		return nil, fmt.Errorf("transaction with ID %s: %w", txID, storage.ErrTransactionNotFound)
	}
	copied := *tx
	return &copied, nil
}

func (s *Store) ListTransactionsByUserID(ctx context.Context, userID string, limit int32) ([]models.Transaction, error) {
	txs := s.filterTransactions(ctx, func(tx *models.Transaction) bool { return tx.UserId == userID })
	slices.Reverse(txs)
	if limit > 0 && int(limit) < len(txs) {
		txs = txs[:limit]
	}
	return txs, ctx.Err()
}

func (s *Store) ListTransactionsByType(ctx context.Context, txType models.TransactionType, from, to time.Time) ([]models.Transaction, error) {
	txs := s.filterTransactions(ctx, func(tx *models.Transaction) bool {
		return tx.Type == txType && !tx.CreatedAt.Before(from) && !tx.CreatedAt.After(to)
	})
	return txs, ctx.Err()
}

func (s *Store) ListTournamentCharges(ctx context.Context, userID, tournamentID string) ([]models.Transaction, error) {
	txs := s.filterTransactions(ctx, func(tx *models.Transaction) bool {
		return tx.UserId == userID && tx.Type == models.ENTRY_FEE && tx.TournamentID() == tournamentID
	})
	return txs, ctx.Err()
}

// filterTransactions returns copies of the matching transactions, oldest first.
func (s *Store) filterTransactions(ctx context.Context, match func(*models.Transaction) bool) []models.Transaction {
	if ctx.Err() != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Transaction
	for _, tx := range s.transactions {
		if match(tx) {
			out = append(out, *tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Id < out[j].Id
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
