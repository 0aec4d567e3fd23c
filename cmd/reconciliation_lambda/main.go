package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/tournament-wallet/pkg/config"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/reconciliation"
	"github.com/chris/tournament-wallet/pkg/scheduler"
	dydbstore "github.com/chris/tournament-wallet/pkg/storage/dynamodb"
	"github.com/chris/tournament-wallet/pkg/wallet"
)

type orphanFinder interface {
	FindOrphanedCharges(ctx context.Context, olderThan, lookback time.Duration) ([]models.Transaction, error)
}

var (
	finder  orphanFinder
	repairs scheduler.RepairScheduler

	olderThan time.Duration
	lookback  time.Duration
)

// HandleRequest is triggered by an EventBridge Schedule. It enqueues every
// orphaned entry fee charge for the repair lambda.
func HandleRequest(ctx context.Context) error {
	log.Println("Starting reconciliation of orphaned entry fee charges...")

	orphans, err := finder.FindOrphanedCharges(ctx, olderThan, lookback)
	if err != nil {
		log.Printf("ERROR: failed to find orphaned charges: %v", err)
		return err
	}

	if len(orphans) == 0 {
		log.Println("No orphaned charges found.")
		return nil
	}

	log.Printf("Found %d orphaned charges. Enqueuing them for repair...", len(orphans))

	for i := range orphans {
		charge := &orphans[i]
		if err := repairs.ScheduleRepair(ctx, charge); err != nil {
			// The next scheduled run picks the charge up again.
			log.Printf("ERROR: failed to enqueue charge %s: %v", charge.Id, err)
			continue
		}
		log.Printf("Enqueued charge %s for tournament %s", charge.Id, charge.TournamentID())
	}

	log.Println("Reconciliation finished.")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := cfg.RequireTables(); err != nil {
		log.Fatal(err)
	}
	if cfg.SQSQueueURL == "" {
		log.Fatal("SQS_QUEUE_URL environment variable not set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	store := dydbstore.New(dynamodb.NewFromConfig(awsCfg),
		cfg.AccountsTable, cfg.TransactionsTable, cfg.TournamentsTable, cfg.RegistrationsTable)
	finder = reconciliation.New(store, wallet.NewService(store, nil), nil)
	repairs = scheduler.NewSQSScheduler(sqs.NewFromConfig(awsCfg), cfg.SQSQueueURL)
	olderThan = cfg.ReconcileAfter
	lookback = cfg.ReconcileLookback

	lambda.Start(HandleRequest)
}
