package tournaments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/chris/tournament-wallet/pkg/api"
	"github.com/chris/tournament-wallet/pkg/mapping"
	"github.com/chris/tournament-wallet/pkg/middleware"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/registration"
	"github.com/chris/tournament-wallet/pkg/wallet"
)

// Registrar is the part of the registration coordinator the handlers call.
type Registrar interface {
	Register(ctx context.Context, tournamentID, userID string, p registration.Payload) (*registration.Result, error)
	Tournament(ctx context.Context, tournamentID string) (*models.Tournament, error)
	Registrations(ctx context.Context, tournamentID string) ([]models.Registration, error)
}

// TournamentsHandler holds the dependencies for tournament-related handlers.
type TournamentsHandler struct {
	Registrar Registrar
}

// NewTournamentsHandler creates a new TournamentsHandler.
func NewTournamentsHandler(r Registrar) *TournamentsHandler {
	return &TournamentsHandler{Registrar: r}
}

// GetTournament returns the tournament snapshot.
func (h *TournamentsHandler) GetTournament(w http.ResponseWriter, r *http.Request, tournamentId string) {
	t, err := h.Registrar.Tournament(r.Context(), tournamentId)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapping.ToApiTournament(t))
}

// ListRegistrations returns every registration of the tournament.
func (h *TournamentsHandler) ListRegistrations(w http.ResponseWriter, r *http.Request, tournamentId string) {
	regs, err := h.Registrar.Registrations(r.Context(), tournamentId)
	if err != nil {
		writeError(w, err)
		return
	}

	apiRegs := make([]*api.Registration, len(regs))
	for i := range regs {
		apiRegs[i] = mapping.ToApiRegistration(&regs[i])
	}
	writeJSON(w, http.StatusOK, apiRegs)
}

// RegisterForTournament charges the caller the entry fee and reserves a slot.
// The body is optional. A repeated call answers 200 with already_joined set.
func (h *TournamentsHandler) RegisterForTournament(w http.ResponseWriter, r *http.Request, tournamentId string) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing caller identity", http.StatusUnauthorized)
		return
	}

	var body api.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	res, err := h.Registrar.Register(r.Context(), tournamentId, caller.UserID, mapping.ToDomainPayload(&body))
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if res.AlreadyJoined {
		status = http.StatusOK
	}
	writeJSON(w, status, &api.RegistrationResult{
		AlreadyJoined: res.AlreadyJoined,
		Tournament:    *mapping.ToApiTournament(res.Tournament),
	})
}

// StatusFor maps a coordinator or wallet error to its HTTP status.
func StatusFor(err error) int {
	switch {
	// Retryable failures first: they may wrap a domain error that is not final.
	case errors.Is(err, registration.ErrPersistFailure), errors.Is(err, registration.ErrStoreFailure):
		return http.StatusServiceUnavailable
	case errors.Is(err, registration.ErrInvalidID), errors.Is(err, wallet.ErrAmountInvalid):
		return http.StatusBadRequest
	case errors.Is(err, registration.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, wallet.ErrInsufficientBalance), errors.Is(err, wallet.ErrBalanceLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, registration.ErrNotJoinable),
		errors.Is(err, registration.ErrFull),
		errors.Is(err, registration.ErrRegistrationRaceLost):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), StatusFor(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
