package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/storage"
)

// counterAttribute returns the reporting counter a transaction type feeds, if any.
func counterAttribute(t models.TransactionType) string {
	switch t {
	case models.DEPOSIT:
		return "total_deposited"
	case models.WITHDRAW:
		return "total_withdrawn"
	case models.PRIZE:
		return "total_won"
	}
	return ""
}

// ApplyDebit atomically decrements the account balance and appends the transaction.
// The balance predicate and the transaction ID uniqueness are both evaluated by DynamoDB.
func (s *Store) ApplyDebit(ctx context.Context, tx *models.Transaction) (*models.Account, error) {
	if tx.Amount >= 0 {
		return nil, fmt.Errorf("debit transaction %s must carry a negative amount, got %d", tx.Id, tx.Amount)
	}

	txAV, err := marshalMap(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction: %w", err)
	}

	updateExpr := "SET balance = balance - :amount, version = if_not_exists(version, :zero) + :one, updated_at = :now"
	if attr := counterAttribute(tx.Type); attr != "" {
		updateExpr += fmt.Sprintf(", %s = if_not_exists(%s, :zero) + :amount", attr, attr)
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				// Operation 1: Debit the account only if the balance covers the amount.
				Update: &types.Update{
					TableName: aws.String(s.AccountsTableName),
					Key: map[string]types.AttributeValue{
						"user_id": &types.AttributeValueMemberS{Value: tx.UserId},
					},
					UpdateExpression:    aws.String(updateExpr),
					ConditionExpression: aws.String("attribute_exists(user_id) AND balance >= :amount"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":amount": &types.AttributeValueMemberN{Value: strconv.FormatInt(-tx.Amount, 10)},
						":zero":   &types.AttributeValueMemberN{Value: "0"},
						":one":    &types.AttributeValueMemberN{Value: "1"},
						":now":    &types.AttributeValueMemberS{Value: formatTime(tx.CreatedAt)},
					},
				},
			},
			{
				// Operation 2: Append the transaction record.
				Put: &types.Put{
					TableName:           aws.String(s.TransactionsTableName),
					Item:                txAV,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				},
			},
		},
	}

	slog.Log(ctx, slog.LevelDebug, "applying debit", "transaction_id", tx.Id, "user_id", tx.UserId, "amount", tx.Amount)

	if _, err := s.Client.TransactWriteItems(ctx, input); err != nil {
		return nil, translateLedgerError(err, storage.ErrInsufficientFunds)
	}

	return s.committedAccount(ctx, tx)
}

// ApplyCredit atomically increments the account balance and appends the transaction.
// The account is created on the fly if it does not exist yet.
func (s *Store) ApplyCredit(ctx context.Context, tx *models.Transaction) (*models.Account, error) {
	if tx.Amount <= 0 {
		return nil, fmt.Errorf("credit transaction %s must carry a positive amount, got %d", tx.Id, tx.Amount)
	}

	txAV, err := marshalMap(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction: %w", err)
	}

	updateExpr := "SET balance = if_not_exists(balance, :zero) + :amount, " +
		"version = if_not_exists(version, :zero) + :one, " +
		"created_at = if_not_exists(created_at, :now), updated_at = :now"
	// Stored numbers must stay within int64 to remain readable.
	condExpr := "(attribute_not_exists(balance) OR balance <= :headroom)"
	if attr := counterAttribute(tx.Type); attr != "" {
		updateExpr += fmt.Sprintf(", %s = if_not_exists(%s, :zero) + :amount", attr, attr)
		condExpr += fmt.Sprintf(" AND (attribute_not_exists(%s) OR %s <= :headroom)", attr, attr)
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName: aws.String(s.AccountsTableName),
					Key: map[string]types.AttributeValue{
						"user_id": &types.AttributeValueMemberS{Value: tx.UserId},
					},
					UpdateExpression:    aws.String(updateExpr),
					ConditionExpression: aws.String(condExpr),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":amount":   &types.AttributeValueMemberN{Value: strconv.FormatInt(tx.Amount, 10)},
						":headroom": &types.AttributeValueMemberN{Value: strconv.FormatInt(math.MaxInt64-tx.Amount, 10)},
						":zero":     &types.AttributeValueMemberN{Value: "0"},
						":one":      &types.AttributeValueMemberN{Value: "1"},
						":now":      &types.AttributeValueMemberS{Value: formatTime(tx.CreatedAt)},
					},
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(s.TransactionsTableName),
					Item:                txAV,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				},
			},
		},
	}

	slog.Log(ctx, slog.LevelDebug, "applying credit", "transaction_id", tx.Id, "user_id", tx.UserId, "amount", tx.Amount)

	if _, err := s.Client.TransactWriteItems(ctx, input); err != nil {
		return nil, translateLedgerError(err, storage.ErrBalanceLimit)
	}

	return s.committedAccount(ctx, tx)
}

// committedAccount reads the account after tx was committed. A failed read does
// not undo the write, so it is reported as ErrBalanceUnavailable.
func (s *Store) committedAccount(ctx context.Context, tx *models.Transaction) (*models.Account, error) {
	account, err := s.GetAccount(ctx, tx.UserId)
	if err != nil {
		slog.WarnContext(ctx, "transaction committed but account reload failed",
			"transaction_id", tx.Id, "user_id", tx.UserId, "error", err)
		return nil, fmt.Errorf("%w: %w", storage.ErrBalanceUnavailable, err)
	}
	return account, nil
}

// translateLedgerError maps the cancellation reasons of a ledger write to storage errors.
// Reason 0 is the account update, reason 1 the transaction put. A duplicate ID takes
// precedence so that a retried debit is reported as already applied.
func translateLedgerError(err error, accountConditionErr error) error {
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		reasons := tce.CancellationReasons
		if len(reasons) > 1 && isConditionalCheckFailed(reasons[1]) {
			return storage.ErrDuplicateTransaction
		}
		if accountConditionErr != nil && len(reasons) > 0 && isConditionalCheckFailed(reasons[0]) {
			return accountConditionErr
		}
	}
	return fmt.Errorf("failed to execute transaction: %w", err)
}

func isConditionalCheckFailed(reason types.CancellationReason) bool {
	return reason.Code != nil && *reason.Code == "ConditionalCheckFailed"
}
