package scheduler

import (
	"context"

	"github.com/chris/tournament-wallet/pkg/models"
)

// RepairScheduler defines the interface for a component that queues orphaned
// entry fee charges for repair.
type RepairScheduler interface {
	// ScheduleRepair enqueues a charge for asynchronous repair.
	ScheduleRepair(ctx context.Context, charge *models.Transaction) error
}
