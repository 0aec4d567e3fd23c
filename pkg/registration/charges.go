package registration

import (
	"context"
	"errors"

	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/storage"
)

// RefundID returns the transaction ID of the refund for an entry fee charge.
// Every refund of a given charge uses this ID, so at most one can ever be applied.
func RefundID(chargeID string) string {
	return "refund-" + chargeID
}

// IsRefunded reports whether the refund of chargeID has been applied.
func IsRefunded(ctx context.Context, txs storage.TransactionReader, chargeID string) (bool, error) {
	_, err := txs.GetTransaction(ctx, RefundID(chargeID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrTransactionNotFound) {
		return false, nil
	}
	return false, err
}

// OutstandingCharge returns the user's oldest unrefunded entry fee charge for the
// tournament, or nil if there is none. When a registration is missing or points at
// a refunded charge, this is the charge that paid for the user's slot.
//
// On DynamoDB the charges come from a global secondary index, which is eventually
// consistent: a charge committed moments ago may not be listed yet. A nil result
// is therefore only conclusive once the writer of that charge has had time to
// finish, and callers should re-read the registration before treating it as lost.
func OutstandingCharge(ctx context.Context, txs storage.TransactionReader, tournamentID, userID string) (*models.Transaction, error) {
	charges, err := txs.ListTournamentCharges(ctx, userID, tournamentID)
	if err != nil {
		return nil, err
	}
	for i := range charges {
		refunded, err := IsRefunded(ctx, txs, charges[i].Id)
		if err != nil {
			return nil, err
		}
		if !refunded {
			return &charges[i], nil
		}
	}
	return nil, nil
}
