package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/tournament-wallet/pkg/metrics"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/storage"
	"github.com/chris/tournament-wallet/pkg/wallet"
	"github.com/google/uuid"
)

const (
	feeDescription    = "tournament_fee"
	refundDescription = "Refund for failed join"
)

// Wallet is the subset of the wallet service used for fees and refunds.
type Wallet interface {
	Debit(ctx context.Context, req wallet.Request) (*models.Account, error)
	Credit(ctx context.Context, req wallet.Request) (*models.Account, error)
}

// Store is the set of storage operations the coordinator depends on.
type Store interface {
	storage.TournamentReader
	storage.SlotReserver
	storage.RegistrationStore
	storage.TransactionReader
}

// Payload is the caller-supplied part of a registration.
type Payload struct {
	TeamName string
	Players  []models.Player
}

// Result is returned by a successful Register call.
type Result struct {
	AlreadyJoined bool
	Tournament    *models.Tournament
}

// Coordinator charges entry fees and reserves tournament slots. It keeps no
// state between calls; every guard is a conditional write in the store.
type Coordinator struct {
	store   Store
	wallet  Wallet
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

// NewCoordinator creates a Coordinator. m may be nil.
func NewCoordinator(store Store, w Wallet, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		store:   store,
		wallet:  w,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.New().String() },
	}
}

// Register enrolls userID in the tournament, charging the entry fee.
//
// The fee is debited before the slot is reserved. If the reservation fails the
// charge is refunded under RefundID, so a user is never left charged for a slot
// they do not hold. A user found holding a slot without a registration record is
// completed against their outstanding charge instead of being charged again.
func (c *Coordinator) Register(ctx context.Context, tournamentID, userID string, p Payload) (*Result, error) {
	res, outcome, err := c.register(ctx, tournamentID, userID, p)
	c.metrics.RegistrationOutcome(outcome)
	return res, err
}

func (c *Coordinator) register(ctx context.Context, tournamentID, userID string, p Payload) (*Result, string, error) {
	if _, err := uuid.Parse(tournamentID); err != nil {
		return nil, "invalid_id", ErrInvalidID
	}

	t, err := c.store.GetTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, storage.ErrTournamentNotFound) {
			return nil, "not_found", ErrNotFound
		}
		return nil, "store_failure", fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}

	existing, err := c.store.GetRegistration(ctx, tournamentID, userID)
	switch {
	case err == nil:
		c.ensurePlayer(ctx, t, existing.UserId)
		return &Result{AlreadyJoined: true, Tournament: t}, "already_joined", nil
	case !errors.Is(err, storage.ErrRegistrationNotFound):
		return nil, "store_failure", fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}

	if !t.Status.Joinable() {
		return nil, "not_joinable", ErrNotJoinable
	}
	if t.HasPlayer(userID) {
		// Charged and reserved by an earlier attempt that never recorded the registration.
		return c.recordExisting(ctx, t, userID, p)
	}
	if t.IsFull() {
		return nil, "full", ErrFull
	}

	var chargeID string
	if t.EntryFee > 0 {
		chargeID = c.newID()
		_, err := c.wallet.Debit(ctx, wallet.Request{
			TransactionID: chargeID,
			UserID:        userID,
			Amount:        t.EntryFee,
			Type:          models.ENTRY_FEE,
			Description:   feeDescription,
			Metadata:      map[string]string{models.MetaTournamentID: tournamentID},
		})
		switch {
		case err == nil, errors.Is(err, wallet.ErrBalanceUnavailable):
		case errors.Is(err, wallet.ErrInsufficientBalance):
			return nil, "insufficient_balance", err
		default:
			return nil, "store_failure", fmt.Errorf("%w: %w", ErrStoreFailure, err)
		}
	}

	err = c.store.ReserveSlot(ctx, tournamentID, userID)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrSlotUnavailable):
		if refundErr := c.refund(ctx, t, userID, chargeID); refundErr != nil {
			// The charge stands until the refund is retried.
			return nil, "store_failure", fmt.Errorf("%w: tournament filled up: %w", ErrStoreFailure, refundErr)
		}
		return nil, "race_lost", ErrRegistrationRaceLost
	case errors.Is(err, storage.ErrAlreadyReserved):
		// A concurrent attempt by the same user won the slot with its own charge.
		if refundErr := c.refund(ctx, t, userID, chargeID); refundErr != nil {
			return nil, "store_failure", fmt.Errorf("%w: %w", ErrStoreFailure, refundErr)
		}
		return c.recordExisting(ctx, t, userID, p)
	default:
		// The update may have been applied; the charge is left for a retry or the reconciler.
		slog.ErrorContext(ctx, "slot reservation failed after charging",
			"tournament_id", tournamentID, "user_id", userID, "transaction_id", chargeID, "error", err)
		return nil, "store_failure", fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}

	reg := &models.Registration{
		TournamentId:     tournamentID,
		UserId:           userID,
		FeePaid:          t.EntryFee,
		FeeTransactionId: chargeID,
		TeamName:         p.TeamName,
		Players:          p.Players,
		JoinedAt:         c.now(),
	}
	if err := c.store.CreateRegistration(ctx, reg); err != nil && !errors.Is(err, storage.ErrRegistrationExists) {
		slog.ErrorContext(ctx, "CRITICAL: user charged and reserved but registration not recorded",
			"tournament_id", tournamentID, "user_id", userID, "transaction_id", chargeID, "error", err)
		return nil, "persist_failure", fmt.Errorf("%w: %w", ErrPersistFailure, err)
	}

	slog.InfoContext(ctx, "player registered", "tournament_id", tournamentID, "user_id", userID, "fee", t.EntryFee)

	updated, err := c.store.GetTournament(ctx, tournamentID)
	if err != nil {
		slog.WarnContext(ctx, "registration recorded but failed to reload tournament", "tournament_id", tournamentID, "error", err)
		t.RegisteredPlayers = append(t.RegisteredPlayers, userID)
		t.PlayerCount++
		updated = t
	}
	return &Result{AlreadyJoined: false, Tournament: updated}, "registered", nil
}

// recordExisting writes the missing registration for a user who already holds a
// slot, against the charge that paid for it. No new charge is made.
func (c *Coordinator) recordExisting(ctx context.Context, t *models.Tournament, userID string, p Payload) (*Result, string, error) {
	reg := &models.Registration{
		TournamentId: t.Id,
		UserId:       userID,
		TeamName:     p.TeamName,
		Players:      p.Players,
		JoinedAt:     c.now(),
	}

	if t.EntryFee > 0 {
		charge, err := OutstandingCharge(ctx, c.store, t.Id, userID)
		if err != nil {
			return nil, "store_failure", fmt.Errorf("%w: %w", ErrStoreFailure, err)
		}
		if charge == nil {
			// The charge index lags the registration table, so a concurrent
			// attempt may already have recorded the slot.
			if _, err := c.store.GetRegistration(ctx, t.Id, userID); err == nil {
				return &Result{AlreadyJoined: true, Tournament: t}, "already_joined", nil
			}
			slog.ErrorContext(ctx, "CRITICAL: player holds a slot without an outstanding charge",
				"tournament_id", t.Id, "user_id", userID)
			return nil, "persist_failure", fmt.Errorf("%w: no outstanding charge for slot held by %s", ErrPersistFailure, userID)
		}
		reg.FeePaid = -charge.Amount
		reg.FeeTransactionId = charge.Id
	}

	if err := c.store.CreateRegistration(ctx, reg); err != nil && !errors.Is(err, storage.ErrRegistrationExists) {
		slog.ErrorContext(ctx, "CRITICAL: failed to record registration for held slot",
			"tournament_id", t.Id, "user_id", userID, "transaction_id", reg.FeeTransactionId, "error", err)
		return nil, "persist_failure", fmt.Errorf("%w: %w", ErrPersistFailure, err)
	}

	slog.InfoContext(ctx, "registration repaired", "tournament_id", t.Id, "user_id", userID, "transaction_id", reg.FeeTransactionId)
	return &Result{AlreadyJoined: true, Tournament: t}, "repaired", nil
}

// refund issues the compensating credit for chargeID. The refund runs detached
// from ctx cancellation: a client disconnect must not leave the charge behind.
func (c *Coordinator) refund(ctx context.Context, t *models.Tournament, userID, chargeID string) error {
	if chargeID == "" {
		return nil
	}
	_, err := c.wallet.Credit(context.WithoutCancel(ctx), wallet.Request{
		TransactionID: RefundID(chargeID),
		UserID:        userID,
		Amount:        t.EntryFee,
		Type:          models.REFUND,
		Description:   refundDescription,
		Metadata: map[string]string{
			models.MetaTournamentID: t.Id,
			models.MetaRefundOf:     chargeID,
		},
	})
	if err != nil && !errors.Is(err, wallet.ErrDuplicateTransaction) && !errors.Is(err, wallet.ErrBalanceUnavailable) {
		c.metrics.Compensation("failed")
		slog.ErrorContext(ctx, "CRITICAL: compensating refund failed",
			"tournament_id", t.Id, "user_id", userID, "transaction_id", chargeID, "error", err)
		return fmt.Errorf("failed to refund charge %s: %w", chargeID, err)
	}
	c.metrics.Compensation("refunded")
	return nil
}

// ensurePlayer restores the user's slot when the participant set drifted from
// the registration table. Capacity is not checked: the registration is proof of payment.
func (c *Coordinator) ensurePlayer(ctx context.Context, t *models.Tournament, userID string) {
	if t.HasPlayer(userID) {
		return
	}
	if err := c.store.EnsurePlayer(ctx, t.Id, userID); err != nil {
		slog.WarnContext(ctx, "failed to restore player in participant set", "tournament_id", t.Id, "user_id", userID, "error", err)
		return
	}
	t.RegisteredPlayers = append(t.RegisteredPlayers, userID)
	t.PlayerCount++
}

// Tournament returns the current tournament snapshot.
func (c *Coordinator) Tournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	if _, err := uuid.Parse(tournamentID); err != nil {
		return nil, ErrInvalidID
	}
	t, err := c.store.GetTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, storage.ErrTournamentNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	return t, nil
}

// Registrations returns every registration of a tournament.
func (c *Coordinator) Registrations(ctx context.Context, tournamentID string) ([]models.Registration, error) {
	if _, err := c.Tournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	regs, err := c.store.ListRegistrations(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	return regs, nil
}
