package storage

import (
	"context"

	"github.com/chris/tournament-wallet/pkg/models"
)

// RegistrationReader defines the interface for reading registrations.
type RegistrationReader interface {
	// GetRegistration retrieves the registration for a pair. Returns ErrRegistrationNotFound if absent.
	GetRegistration(ctx context.Context, tournamentID, userID string) (*models.Registration, error)

	// ListRegistrations retrieves every registration of a tournament.
	ListRegistrations(ctx context.Context, tournamentID string) ([]models.Registration, error)
}

// RegistrationStore adds the unique insert to the reader.
type RegistrationStore interface {
	RegistrationReader

	// CreateRegistration inserts a registration and fails with ErrRegistrationExists
	// rather than overwriting when the pair is already present.
	CreateRegistration(ctx context.Context, reg *models.Registration) error
}
