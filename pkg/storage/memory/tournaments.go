package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/storage"
)

func (s *Store) CreateTournament(ctx context.Context, t *models.Tournament) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tournaments[t.Id]; ok {
		return fmt.Errorf("tournament %s: %w", t.Id, storage.ErrTournamentExists)
	}
	t.PlayerCount = int64(len(t.RegisteredPlayers))
	stored := *t
	stored.RegisteredPlayers = slices.Clone(t.RegisteredPlayers)
	s.tournaments[t.Id] = &stored
	return nil
}

func (s *Store) GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tournaments[tournamentID]
	if !ok {
		return nil, fmt.Errorf("tournament %s: %w", tournamentID, storage.ErrTournamentNotFound)
	}
	copied := *t
	copied.RegisteredPlayers = slices.Clone(t.RegisteredPlayers)
	return &copied, nil
}

func (s *Store) ReserveSlot(ctx context.Context, tournamentID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tournaments[tournamentID]
	if !ok {
		return fmt.Errorf("tournament %s: %w", tournamentID, storage.ErrTournamentNotFound)
	}
	if t.HasPlayer(userID) {
		return storage.ErrAlreadyReserved
	}
	if t.PlayerCount >= t.MaxSlots {
		return storage.ErrSlotUnavailable
	}
	t.RegisteredPlayers = append(t.RegisteredPlayers, userID)
	t.PlayerCount++
	return nil
}

func (s *Store) EnsurePlayer(ctx context.Context, tournamentID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tournaments[tournamentID]
	if !ok {
		return fmt.Errorf("tournament %s: %w", tournamentID, storage.ErrTournamentNotFound)
	}
	if !t.HasPlayer(userID) {
		t.RegisteredPlayers = append(t.RegisteredPlayers, userID)
		t.PlayerCount++
	}
	return nil
}

// RemovePlayer drops a user from the participant set without touching the
// registration. It exists to reproduce set drift in tests.
func (s *Store) RemovePlayer(tournamentID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tournaments[tournamentID]
	if !ok {
		return
	}
	if i := slices.Index(t.RegisteredPlayers, userID); i >= 0 {
		t.RegisteredPlayers = slices.Delete(t.RegisteredPlayers, i, i+1)
		t.PlayerCount--
	}
}
