package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/tournament-wallet/pkg/metrics"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/registration"
	"github.com/chris/tournament-wallet/pkg/storage"
	"github.com/chris/tournament-wallet/pkg/wallet"
)

// Outcome is what Repair did with a charge.
type Outcome string

const (
	OutcomeSkipped    Outcome = "skipped"
	OutcomeRefunded   Outcome = "refunded"
	OutcomeRegistered Outcome = "registered"
)

const refundDescription = "Refund for unregistered entry fee"

// Store is the set of storage operations the reconciler depends on.
type Store interface {
	storage.TransactionReader
	storage.TournamentReader
	storage.RegistrationStore
}

// Wallet is the subset of the wallet service used to refund charges.
type Wallet interface {
	Credit(ctx context.Context, req wallet.Request) (*models.Account, error)
}

// Reconciler finds entry fee charges that never turned into a registration and
// resolves each one by recording the registration or refunding the charge.
// Refunds use registration.RefundID, so they can never double up with a
// compensation issued by the coordinator.
type Reconciler struct {
	store   Store
	wallet  Wallet
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a Reconciler. m may be nil.
func New(store Store, w Wallet, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		store:   store,
		wallet:  w,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// FindOrphanedCharges returns entry fee charges created between now-lookback and
// now-olderThan that are neither refunded nor the charge paying for a registration.
// olderThan keeps in-flight registrations out of the result.
func (r *Reconciler) FindOrphanedCharges(ctx context.Context, olderThan, lookback time.Duration) ([]models.Transaction, error) {
	now := r.now()
	charges, err := r.store.ListTransactionsByType(ctx, models.ENTRY_FEE, now.Add(-lookback), now.Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("failed to list entry fee charges: %w", err)
	}

	var orphans []models.Transaction
	for _, charge := range charges {
		refunded, err := registration.IsRefunded(ctx, r.store, charge.Id)
		if err != nil {
			return nil, fmt.Errorf("failed to check refund of %s: %w", charge.Id, err)
		}
		if refunded {
			continue
		}

		reg, err := r.store.GetRegistration(ctx, charge.TournamentID(), charge.UserId)
		if err != nil && !errors.Is(err, storage.ErrRegistrationNotFound) {
			return nil, fmt.Errorf("failed to get registration for %s: %w", charge.Id, err)
		}
		if reg != nil {
			paying, err := r.payingCharge(ctx, reg)
			if err != nil {
				return nil, err
			}
			if paying == charge.Id {
				continue
			}
		}
		orphans = append(orphans, charge)
	}
	return orphans, nil
}

// payingCharge returns the ID of the charge that pays for reg: its own fee
// transaction while that is unrefunded, otherwise the user's oldest unrefunded
// charge for the tournament.
func (r *Reconciler) payingCharge(ctx context.Context, reg *models.Registration) (string, error) {
	if reg.FeeTransactionId != "" {
		refunded, err := registration.IsRefunded(ctx, r.store, reg.FeeTransactionId)
		if err != nil {
			return "", fmt.Errorf("failed to check refund of %s: %w", reg.FeeTransactionId, err)
		}
		if !refunded {
			return reg.FeeTransactionId, nil
		}
	}
	outstanding, err := registration.OutstandingCharge(ctx, r.store, reg.TournamentId, reg.UserId)
	if err != nil {
		return "", fmt.Errorf("failed to find outstanding charge: %w", err)
	}
	if outstanding == nil {
		return "", nil
	}
	return outstanding.Id, nil
}

// Repair re-checks a charge against the current state and resolves it.
// It is safe to call repeatedly and concurrently for the same charge.
func (r *Reconciler) Repair(ctx context.Context, charge models.Transaction) (Outcome, error) {
	outcome, err := r.repair(ctx, charge)
	if err != nil {
		r.metrics.ReconciliationOutcome("error")
		return "", err
	}
	r.metrics.ReconciliationOutcome(string(outcome))
	return outcome, nil
}

func (r *Reconciler) repair(ctx context.Context, charge models.Transaction) (Outcome, error) {
	if charge.Type != models.ENTRY_FEE {
		return "", fmt.Errorf("transaction %s is not an entry fee charge", charge.Id)
	}
	tournamentID := charge.TournamentID()
	if tournamentID == "" {
		return "", fmt.Errorf("charge %s has no tournament", charge.Id)
	}

	refunded, err := registration.IsRefunded(ctx, r.store, charge.Id)
	if err != nil {
		return "", fmt.Errorf("failed to check refund of %s: %w", charge.Id, err)
	}
	if refunded {
		return OutcomeSkipped, nil
	}

	reg, err := r.store.GetRegistration(ctx, tournamentID, charge.UserId)
	if err != nil && !errors.Is(err, storage.ErrRegistrationNotFound) {
		return "", fmt.Errorf("failed to get registration: %w", err)
	}
	if reg != nil {
		paying, err := r.payingCharge(ctx, reg)
		if err != nil {
			return "", err
		}
		if paying == charge.Id {
			return OutcomeSkipped, nil
		}
		// The slot is paid for by another charge.
		return r.refund(ctx, charge)
	}

	t, err := r.store.GetTournament(ctx, tournamentID)
	if err != nil && !errors.Is(err, storage.ErrTournamentNotFound) {
		return "", fmt.Errorf("failed to get tournament: %w", err)
	}
	if t == nil || !t.HasPlayer(charge.UserId) {
		// Charged but never reserved.
		return r.refund(ctx, charge)
	}

	// Charged and reserved but never recorded.
	paying, err := registration.OutstandingCharge(ctx, r.store, tournamentID, charge.UserId)
	if err != nil {
		return "", fmt.Errorf("failed to find outstanding charge: %w", err)
	}
	if paying == nil {
		paying = &charge
	}
	err = r.store.CreateRegistration(ctx, &models.Registration{
		TournamentId:     tournamentID,
		UserId:           charge.UserId,
		FeePaid:          -paying.Amount,
		FeeTransactionId: paying.Id,
		JoinedAt:         paying.CreatedAt,
	})
	if errors.Is(err, storage.ErrRegistrationExists) {
		// Recorded concurrently; decide again against it.
		return r.repair(ctx, charge)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create registration: %w", err)
	}
	slog.InfoContext(ctx, "registration recorded by reconciler",
		"tournament_id", tournamentID, "user_id", charge.UserId, "transaction_id", paying.Id)

	if paying.Id != charge.Id {
		return r.refund(ctx, charge)
	}
	return OutcomeRegistered, nil
}

func (r *Reconciler) refund(ctx context.Context, charge models.Transaction) (Outcome, error) {
	_, err := r.wallet.Credit(ctx, wallet.Request{
		TransactionID: registration.RefundID(charge.Id),
		UserID:        charge.UserId,
		Amount:        -charge.Amount,
		Type:          models.REFUND,
		Description:   refundDescription,
		Metadata: map[string]string{
			models.MetaTournamentID: charge.TournamentID(),
			models.MetaRefundOf:     charge.Id,
		},
	})
	if err != nil && !errors.Is(err, wallet.ErrDuplicateTransaction) && !errors.Is(err, wallet.ErrBalanceUnavailable) {
		return "", fmt.Errorf("failed to refund charge %s: %w", charge.Id, err)
	}
	slog.InfoContext(ctx, "orphaned charge refunded", "user_id", charge.UserId, "transaction_id", charge.Id, "amount", -charge.Amount)
	return OutcomeRefunded, nil
}

// Run finds and repairs orphaned charges in-process. Failures on single charges
// are logged and counted; the first one is returned after the batch completes.
func (r *Reconciler) Run(ctx context.Context, olderThan, lookback time.Duration) (map[Outcome]int, error) {
	orphans, err := r.FindOrphanedCharges(ctx, olderThan, lookback)
	if err != nil {
		return nil, err
	}

	counts := make(map[Outcome]int)
	var firstErr error
	for _, charge := range orphans {
		outcome, err := r.Repair(ctx, charge)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repair charge", "transaction_id", charge.Id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		counts[outcome]++
	}
	return counts, firstErr
}
