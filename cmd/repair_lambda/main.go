package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chris/tournament-wallet/pkg/config"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/reconciliation"
	dydbstore "github.com/chris/tournament-wallet/pkg/storage/dynamodb"
	"github.com/chris/tournament-wallet/pkg/wallet"
)

type repairer interface {
	Repair(ctx context.Context, charge models.Transaction) (reconciliation.Outcome, error)
}

var reconciler repairer

// HandleRequest repairs the charges enqueued by the reconciliation lambda.
// Failed messages are reported individually so SQS only redelivers those.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse

	for _, message := range sqsEvent.Records {
		var charge models.Transaction
		if err := json.Unmarshal([]byte(message.Body), &charge); err != nil {
			// Redelivery cannot fix a malformed body; the queue's DLQ keeps it.
			log.Printf("ERROR: failed to unmarshal charge from SQS message %s: %v", message.MessageId, err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: message.MessageId})
			continue
		}

		outcome, err := reconciler.Repair(ctx, charge)
		if err != nil {
			log.Printf("ERROR: failed to repair charge %s: %v", charge.Id, err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: message.MessageId})
			continue
		}

		log.Printf("Repaired charge %s: %s", charge.Id, outcome)
	}

	return resp, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := cfg.RequireTables(); err != nil {
		log.Fatal(err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	store := dydbstore.New(dynamodb.NewFromConfig(awsCfg),
		cfg.AccountsTable, cfg.TransactionsTable, cfg.TournamentsTable, cfg.RegistrationsTable)
	reconciler = reconciliation.New(store, wallet.NewService(store, nil), nil)

	lambda.Start(HandleRequest)
}
