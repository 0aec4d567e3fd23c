package storage

import (
	"context"

	"github.com/chris/tournament-wallet/pkg/models"
)

// TournamentReader defines the interface for reading tournaments.
type TournamentReader interface {
	// GetTournament retrieves a tournament. Returns ErrTournamentNotFound if absent.
	GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error)
}

// SlotReserver holds the conditional writes on a tournament's participant set.
type SlotReserver interface {
	// ReserveSlot adds userID to the participant set only if it is not already
	// present and the tournament has a free slot, evaluated atomically by the store.
	// Returns ErrAlreadyReserved or ErrSlotUnavailable when the predicate fails.
	ReserveSlot(ctx context.Context, tournamentID, userID string) error

	// EnsurePlayer adds userID to the participant set if it is missing, without a
	// capacity check. Used only to repair drift for users holding a registration.
	EnsurePlayer(ctx context.Context, tournamentID, userID string) error
}

// TournamentStore combines the tournament interfaces.
type TournamentStore interface {
	TournamentReader
	SlotReserver

	// CreateTournament stores a new tournament. Returns ErrTournamentExists if the ID is taken.
	CreateTournament(ctx context.Context, t *models.Tournament) error
}
