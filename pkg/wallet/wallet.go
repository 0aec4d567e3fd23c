package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/tournament-wallet/pkg/metrics"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/storage"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Request describes one ledger movement. Amount is always positive; the
// operation decides its sign. TransactionID doubles as an idempotency key
// and is generated when empty.
type Request struct {
	TransactionID string
	UserID        string
	Amount        int64
	Type          models.TransactionType
	Description   string
	Metadata      map[string]string
}

// Service is the only writer of the ledger. Every balance change goes through
// Debit or Credit, each of which is a single conditional write in the store.
type Service struct {
	store   storage.LedgerStore
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService creates a wallet Service. m may be nil.
func NewService(store storage.LedgerStore, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Debit removes req.Amount from the user's balance if and only if the balance covers it.
// An error wrapping ErrBalanceUnavailable means the debit was applied.
func (s *Service) Debit(ctx context.Context, req Request) (*models.Account, error) {
	if req.Amount <= 0 {
		return nil, ErrAmountInvalid
	}
	if !req.Type.IsDebit() {
		return nil, fmt.Errorf("%w: %s is not a debit", ErrInvalidTransactionType, req.Type)
	}

	tx := s.newTransaction(req, -req.Amount)
	account, err := s.store.ApplyDebit(ctx, tx)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInsufficientFunds):
			s.metrics.WalletOperation(string(req.Type), "rejected")
			return nil, ErrInsufficientBalance
		case errors.Is(err, storage.ErrDuplicateTransaction):
			s.metrics.WalletOperation(string(req.Type), "duplicate")
			return nil, fmt.Errorf("debit %s: %w", tx.Id, ErrDuplicateTransaction)
		case errors.Is(err, storage.ErrBalanceUnavailable):
			s.metrics.WalletOperation(string(req.Type), "ok")
			slog.WarnContext(ctx, "account debited, balance unavailable", "user_id", req.UserID, "transaction_id", tx.Id, "type", req.Type, "amount", req.Amount)
			return nil, fmt.Errorf("debit %s: %w", tx.Id, ErrBalanceUnavailable)
		}
		s.metrics.WalletOperation(string(req.Type), "error")
		return nil, fmt.Errorf("failed to debit account %s: %w", req.UserID, err)
	}

	s.metrics.WalletOperation(string(req.Type), "ok")
	slog.InfoContext(ctx, "account debited", "user_id", req.UserID, "transaction_id", tx.Id, "type", req.Type, "amount", req.Amount)
	return account, nil
}

// Credit adds req.Amount to the user's balance, creating the account if needed.
// An error wrapping ErrBalanceUnavailable means the credit was applied.
func (s *Service) Credit(ctx context.Context, req Request) (*models.Account, error) {
	if req.Amount <= 0 {
		return nil, ErrAmountInvalid
	}
	if !req.Type.IsCredit() {
		return nil, fmt.Errorf("%w: %s is not a credit", ErrInvalidTransactionType, req.Type)
	}

	tx := s.newTransaction(req, req.Amount)
	account, err := s.store.ApplyCredit(ctx, tx)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicateTransaction):
			s.metrics.WalletOperation(string(req.Type), "duplicate")
			return nil, fmt.Errorf("credit %s: %w", tx.Id, ErrDuplicateTransaction)
		case errors.Is(err, storage.ErrBalanceLimit):
			s.metrics.WalletOperation(string(req.Type), "rejected")
			return nil, ErrBalanceLimitExceeded
		case errors.Is(err, storage.ErrBalanceUnavailable):
			s.metrics.WalletOperation(string(req.Type), "ok")
			slog.WarnContext(ctx, "account credited, balance unavailable", "user_id", req.UserID, "transaction_id", tx.Id, "type", req.Type, "amount", req.Amount)
			return nil, fmt.Errorf("credit %s: %w", tx.Id, ErrBalanceUnavailable)
		}
		s.metrics.WalletOperation(string(req.Type), "error")
		return nil, fmt.Errorf("failed to credit account %s: %w", req.UserID, err)
	}

	s.metrics.WalletOperation(string(req.Type), "ok")
	slog.InfoContext(ctx, "account credited", "user_id", req.UserID, "transaction_id", tx.Id, "type", req.Type, "amount", req.Amount)
	return account, nil
}

func (s *Service) newTransaction(req Request, signed int64) *models.Transaction {
	id := req.TransactionID
	if id == "" {
		id = uuid.New().String()
	}
	return &models.Transaction{
		Id:          id,
		UserId:      req.UserID,
		Type:        req.Type,
		Amount:      signed,
		Description: req.Description,
		Status:      models.COMPLETED,
		Metadata:    req.Metadata,
		CreatedAt:   s.now(),
	}
}

// GetOrCreate returns the user's account, creating an empty one on first access.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, storage.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account, err = s.store.CreateAccount(ctx, userID)
	if errors.Is(err, storage.ErrAccountExists) {
		// Created concurrently.
		return s.store.GetAccount(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// ListTransactions returns the user's most recent transactions. A non-positive
// limit selects the default page size.
func (s *Service) ListTransactions(ctx context.Context, userID string, limit int32) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	txs, err := s.store.ListTransactionsByUserID(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// Deposit records funds entering the wallet.
func (s *Service) Deposit(ctx context.Context, userID string, amount int64, reference string) (*models.Account, error) {
	req := Request{UserID: userID, Amount: amount, Type: models.DEPOSIT, Description: "deposit"}
	if reference != "" {
		req.Metadata = map[string]string{models.MetaReference: reference}
	}
	return s.Credit(ctx, req)
}

// Withdraw records funds leaving the wallet.
func (s *Service) Withdraw(ctx context.Context, userID string, amount int64) (*models.Account, error) {
	return s.Debit(ctx, Request{UserID: userID, Amount: amount, Type: models.WITHDRAW, Description: "withdraw"})
}

// AwardPrize credits a tournament prize. The transaction ID is derived from the
// tournament and user so a prize can be paid at most once.
func (s *Service) AwardPrize(ctx context.Context, userID, tournamentID string, amount int64) (*models.Account, error) {
	return s.Credit(ctx, Request{
		TransactionID: "prize-" + tournamentID + "-" + userID,
		UserID:        userID,
		Amount:        amount,
		Type:          models.PRIZE,
		Description:   "tournament_prize",
		Metadata:      map[string]string{models.MetaTournamentID: tournamentID},
	})
}
