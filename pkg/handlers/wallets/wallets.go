package wallets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/chris/tournament-wallet/pkg/api"
	"github.com/chris/tournament-wallet/pkg/mapping"
	"github.com/chris/tournament-wallet/pkg/middleware"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/wallet"
)

// WalletService is the part of the wallet service the handlers call.
type WalletService interface {
	GetOrCreate(ctx context.Context, userID string) (*models.Account, error)
	Deposit(ctx context.Context, userID string, amount int64, reference string) (*models.Account, error)
	Withdraw(ctx context.Context, userID string, amount int64) (*models.Account, error)
	ListTransactions(ctx context.Context, userID string, limit int32) ([]models.Transaction, error)
}

// WalletsHandler holds the dependencies for wallet-related handlers.
type WalletsHandler struct {
	Wallets WalletService
}

// NewWalletsHandler creates a new WalletsHandler.
func NewWalletsHandler(svc WalletService) *WalletsHandler {
	return &WalletsHandler{Wallets: svc}
}

// GetWallet returns the caller's wallet, creating it on first access.
func (h *WalletsHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing caller identity", http.StatusUnauthorized)
		return
	}

	account, err := h.Wallets.GetOrCreate(r.Context(), caller.UserID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve wallet: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiAccount(account))
}

// Deposit credits the caller's wallet.
func (h *WalletsHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing caller identity", http.StatusUnauthorized)
		return
	}

	var body api.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	var reference string
	if body.Reference != nil {
		reference = *body.Reference
	}

	account, err := h.Wallets.Deposit(r.Context(), caller.UserID, body.Amount, reference)
	if err != nil {
		writeError(w, "Failed to deposit", err)
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiAccount(account))
}

// Withdraw debits the caller's wallet.
func (h *WalletsHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing caller identity", http.StatusUnauthorized)
		return
	}

	var body api.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	account, err := h.Wallets.Withdraw(r.Context(), caller.UserID, body.Amount)
	if err != nil {
		writeError(w, "Failed to withdraw", err)
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiAccount(account))
}

// ListTransactions returns the caller's most recent transactions.
func (h *WalletsHandler) ListTransactions(w http.ResponseWriter, r *http.Request, params api.ListTransactionsParams) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing caller identity", http.StatusUnauthorized)
		return
	}

	var limit int32
	if params.Limit != nil {
		limit = *params.Limit
	}

	txs, err := h.Wallets.ListTransactions(r.Context(), caller.UserID, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve transactions: %v", err), http.StatusInternalServerError)
		return
	}

	apiTxs := make([]*api.Transaction, len(txs))
	for i := range txs {
		apiTxs[i] = mapping.ToApiTransaction(&txs[i])
	}
	writeJSON(w, http.StatusOK, apiTxs)
}

func writeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, wallet.ErrAmountInvalid):
		http.Error(w, "Amount must be positive", http.StatusBadRequest)
	case errors.Is(err, wallet.ErrInsufficientBalance):
		http.Error(w, "Insufficient funds", http.StatusUnprocessableEntity)
	case errors.Is(err, wallet.ErrBalanceLimitExceeded):
		http.Error(w, "Balance limit exceeded", http.StatusUnprocessableEntity)
	case errors.Is(err, wallet.ErrBalanceUnavailable):
		// Applied; the client must not repeat the request.
		http.Error(w, "Transaction applied, balance temporarily unavailable", http.StatusAccepted)
	default:
		http.Error(w, fmt.Sprintf("%s: %v", msg, err), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
