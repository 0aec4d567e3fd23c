package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/storage"
)

func (s *Store) CreateRegistration(ctx context.Context, reg *models.Registration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := registrationKey{tournamentID: reg.TournamentId, userID: reg.UserId}
	if _, ok := s.registrations[key]; ok {
		return storage.ErrRegistrationExists
	}
	stored := *reg
	stored.Players = slices.Clone(reg.Players)
	s.registrations[key] = &stored
	return nil
}

func (s *Store) GetRegistration(ctx context.Context, tournamentID, userID string) (*models.Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.registrations[registrationKey{tournamentID: tournamentID, userID: userID}]
	if !ok {
		return nil, storage.ErrRegistrationNotFound
	}
	copied := *reg
	copied.Players = slices.Clone(reg.Players)
	return &copied, nil
}

func (s *Store) ListRegistrations(ctx context.Context, tournamentID string) ([]models.Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var regs []models.Registration
	for key, reg := range s.registrations {
		if key.tournamentID == tournamentID {
			regs = append(regs, *reg)
		}
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].UserId < regs[j].UserId })
	return regs, nil
}
