package handlers

import (
	"github.com/chris/tournament-wallet/pkg/api"
	"github.com/chris/tournament-wallet/pkg/handlers/tournaments"
	"github.com/chris/tournament-wallet/pkg/handlers/wallets"
)

// ApiHandler implements api.ServerInterface by composing the
// per-resource handlers.
type ApiHandler struct {
	*wallets.WalletsHandler
	*tournaments.TournamentsHandler
}

// NewApiHandler creates a new ApiHandler.
func NewApiHandler(w wallets.WalletService, r tournaments.Registrar) *ApiHandler {
	return &ApiHandler{
		WalletsHandler:     wallets.NewWalletsHandler(w),
		TournamentsHandler: tournaments.NewTournamentsHandler(r),
	}
}

// Make sure we conform to the interface
var _ api.ServerInterface = (*ApiHandler)(nil)
