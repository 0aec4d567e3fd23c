package wallets_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chris/tournament-wallet/pkg/api"
	"github.com/chris/tournament-wallet/pkg/handlers/wallets"
	"github.com/chris/tournament-wallet/pkg/middleware"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/storage"
	"github.com/chris/tournament-wallet/pkg/storage/memory"
	"github.com/chris/tournament-wallet/pkg/storage/mocks"
	"github.com/chris/tournament-wallet/pkg/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), middleware.Identity{UserID: userID}))
}

func newHandler(store *mocks.Storage) *wallets.WalletsHandler {
	return wallets.NewWalletsHandler(wallet.NewService(store, nil))
}

func TestGetWallet(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("GetAccount", mock.Anything, "user-a").Return(&models.Account{UserId: "user-a", Balance: 250}, nil)

		h := newHandler(mockStorage)
		req := asUser(httptest.NewRequest(http.MethodGet, "/wallet", nil), "user-a")
		rr := httptest.NewRecorder()

		h.GetWallet(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var got api.Account
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		assert.Equal(t, int64(250), got.Balance)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Created On First Access", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("GetAccount", mock.Anything, "user-new").Return(nil, storage.ErrAccountNotFound)
		mockStorage.On("CreateAccount", mock.Anything, "user-new").Return(&models.Account{UserId: "user-new"}, nil)

		h := newHandler(mockStorage)
		req := asUser(httptest.NewRequest(http.MethodGet, "/wallet", nil), "user-new")
		rr := httptest.NewRecorder()

		h.GetWallet(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockStorage.AssertExpectations(t)
	})

	t.Run("No Identity", func(t *testing.T) {
		h := newHandler(new(mocks.Storage))
		rr := httptest.NewRecorder()

		h.GetWallet(rr, httptest.NewRequest(http.MethodGet, "/wallet", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("GetAccount", mock.Anything, "user-a").Return(nil, errors.New("dynamodb down"))

		h := newHandler(mockStorage)
		req := asUser(httptest.NewRequest(http.MethodGet, "/wallet", nil), "user-a")
		rr := httptest.NewRecorder()

		h.GetWallet(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestDeposit(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("ApplyCredit", mock.Anything, mock.MatchedBy(func(tx *models.Transaction) bool {
			return tx.UserId == "user-a" && tx.Type == models.DEPOSIT && tx.Amount == 100 &&
				tx.Metadata[models.MetaReference] == "receipt-1"
		})).Return(&models.Account{UserId: "user-a", Balance: 100, TotalDeposited: 100}, nil)

		h := newHandler(mockStorage)
		body, _ := json.Marshal(map[string]any{"amount": 100, "reference": "receipt-1"})
		req := asUser(httptest.NewRequest(http.MethodPost, "/wallet/deposit", bytes.NewReader(body)), "user-a")
		rr := httptest.NewRecorder()

		h.Deposit(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Invalid Amount", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		h := newHandler(mockStorage)
		req := asUser(httptest.NewRequest(http.MethodPost, "/wallet/deposit", bytes.NewReader([]byte(`{"amount":0}`))), "user-a")
		rr := httptest.NewRecorder()

		h.Deposit(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockStorage.AssertNotCalled(t, "ApplyCredit", mock.Anything, mock.Anything)
	})

	t.Run("Invalid Body", func(t *testing.T) {
		h := newHandler(new(mocks.Storage))
		req := asUser(httptest.NewRequest(http.MethodPost, "/wallet/deposit", bytes.NewReader([]byte(`{`))), "user-a")
		rr := httptest.NewRecorder()

		h.Deposit(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Balance Limit", func(t *testing.T) {
		h := wallets.NewWalletsHandler(wallet.NewService(memory.New(), nil))
		deposit := func(body string) int {
			req := asUser(httptest.NewRequest(http.MethodPost, "/wallet/deposit", bytes.NewReader([]byte(body))), "user-a")
			rr := httptest.NewRecorder()
			h.Deposit(rr, req)
			return rr.Code
		}

		require.Equal(t, http.StatusOK, deposit(`{"amount":9223372036854775807}`))
		assert.Equal(t, http.StatusUnprocessableEntity, deposit(`{"amount":10}`))

		rr := httptest.NewRecorder()
		h.GetWallet(rr, asUser(httptest.NewRequest(http.MethodGet, "/wallet", nil), "user-a"))
		var got api.Account
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		assert.Equal(t, int64(math.MaxInt64), got.Balance)
	})
}

func TestWithdraw(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("ApplyDebit", mock.Anything, mock.MatchedBy(func(tx *models.Transaction) bool {
			return tx.Type == models.WITHDRAW && tx.Amount == -20
		})).Return(&models.Account{UserId: "user-a", Balance: 10}, nil)

		h := newHandler(mockStorage)
		req := asUser(httptest.NewRequest(http.MethodPost, "/wallet/withdraw", bytes.NewReader([]byte(`{"amount":20}`))), "user-a")
		rr := httptest.NewRecorder()

		h.Withdraw(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Insufficient Funds", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("ApplyDebit", mock.Anything, mock.Anything).Return(nil, storage.ErrInsufficientFunds)

		h := newHandler(mockStorage)
		req := asUser(httptest.NewRequest(http.MethodPost, "/wallet/withdraw", bytes.NewReader([]byte(`{"amount":50}`))), "user-a")
		rr := httptest.NewRecorder()

		h.Withdraw(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Applied But Balance Unavailable", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("ApplyDebit", mock.Anything, mock.Anything).Once().
			Return(nil, fmt.Errorf("%w: throttled", storage.ErrBalanceUnavailable))

		h := newHandler(mockStorage)
		req := asUser(httptest.NewRequest(http.MethodPost, "/wallet/withdraw", bytes.NewReader([]byte(`{"amount":20}`))), "user-a")
		rr := httptest.NewRecorder()

		h.Withdraw(rr, req)

		assert.Equal(t, http.StatusAccepted, rr.Code)
		mockStorage.AssertExpectations(t)
	})
}

func TestListTransactions(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		limit := int32(5)
		mockStorage := new(mocks.Storage)
		mockStorage.On("ListTransactionsByUserID", mock.Anything, "user-a", int32(5)).Return([]models.Transaction{
			{Id: "tx-2", Type: models.WITHDRAW, Amount: -20},
			{Id: "tx-1", Type: models.DEPOSIT, Amount: 50},
		}, nil)

		h := newHandler(mockStorage)
		req := asUser(httptest.NewRequest(http.MethodGet, "/wallet/transactions?limit=5", nil), "user-a")
		rr := httptest.NewRecorder()

		h.ListTransactions(rr, req, api.ListTransactionsParams{Limit: &limit})

		assert.Equal(t, http.StatusOK, rr.Code)
		var got []api.Transaction
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		require.Len(t, got, 2)
		assert.Equal(t, "tx-2", got[0].Id)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Default Limit", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("ListTransactionsByUserID", mock.Anything, "user-a", int32(20)).Return([]models.Transaction{}, nil)

		h := newHandler(mockStorage)
		req := asUser(httptest.NewRequest(http.MethodGet, "/wallet/transactions", nil), "user-a")
		rr := httptest.NewRecorder()

		h.ListTransactions(rr, req, api.ListTransactionsParams{})

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
		mockStorage.AssertExpectations(t)
	})
}

var _ wallets.WalletService = (*wallet.Service)(nil)
