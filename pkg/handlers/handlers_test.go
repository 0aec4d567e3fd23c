package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chris/tournament-wallet/pkg/api"
	"github.com/chris/tournament-wallet/pkg/middleware"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/registration"
	"github.com/chris/tournament-wallet/pkg/storage/memory"
	"github.com/chris/tournament-wallet/pkg/wallet"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (http.Handler, string) {
	t.Helper()
	store := memory.New()
	w := wallet.NewService(store, nil)
	tournamentID := uuid.New().String()
	require.NoError(t, store.CreateTournament(context.Background(), &models.Tournament{
		Id: tournamentID, Title: "Sunday Open", EntryFee: 100, MaxSlots: 1, Status: models.UPCOMING,
	}))

	r := chi.NewRouter()
	r.Use(middleware.RequireIdentity)
	return api.HandlerFromMux(NewApiHandler(w, registration.NewCoordinator(store, w, nil)), r), tournamentID
}

func do(t *testing.T, h http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRoutes(t *testing.T) {
	t.Run("Two Users Race For The Last Slot", func(t *testing.T) {
		h, tournamentID := newRouter(t)
		path := "/tournaments/" + tournamentID + "/registrations"

		require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/wallet/deposit", "user-a", `{"amount":150}`).Code)
		require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/wallet/deposit", "user-b", `{"amount":150}`).Code)

		assert.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, path, "user-a", "").Code)
		assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, path, "user-b", "").Code)

		var acc api.Account
		rr := do(t, h, http.MethodGet, "/wallet", "user-b", "")
		require.Equal(t, http.StatusOK, rr.Code)
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&acc))
		assert.Equal(t, int64(150), acc.Balance)

		rr = do(t, h, http.MethodGet, "/tournaments/"+tournamentID, "user-b", "")
		require.Equal(t, http.StatusOK, rr.Code)
		var snap api.Tournament
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&snap))
		assert.Equal(t, []string{"user-a"}, snap.RegisteredPlayers)
	})

	t.Run("Withdraw More Than Balance", func(t *testing.T) {
		h, _ := newRouter(t)

		require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/wallet/deposit", "user-c", `{"amount":30}`).Code)
		assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodPost, "/wallet/withdraw", "user-c", `{"amount":50}`).Code)

		rr := do(t, h, http.MethodGet, "/wallet/transactions?limit=10", "user-c", "")
		require.Equal(t, http.StatusOK, rr.Code)
		var txs []api.Transaction
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&txs))
		require.Len(t, txs, 1)
		assert.Equal(t, api.TransactionTypeDeposit, txs[0].Type)
	})

	t.Run("Bad Limit", func(t *testing.T) {
		h, _ := newRouter(t)

		assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/wallet/transactions?limit=lots", "user-a", "").Code)
	})

	t.Run("Missing Identity", func(t *testing.T) {
		h, _ := newRouter(t)

		assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/wallet", "", "").Code)
	})
}
