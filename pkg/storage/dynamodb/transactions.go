package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/storage"
)

const (
	userIDCreatedAtIndex = "user_id-created_at-index"
	typeCreatedAtIndex   = "type-created_at-index"
)

// GetTransaction retrieves a transaction from DynamoDB by its ID.
func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	key, err := marshalMap(map[string]string{"id": txID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction ID: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName:      aws.String(s.TransactionsTableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("transaction with ID %s: %w", txID, storage.ErrTransactionNotFound)
	}

	var tx models.Transaction
	if err := attributevalue.UnmarshalMap(result.Item, &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}

	return &tx, nil
}

// ListTransactionsByUserID retrieves the most recent transactions of a user.
func (s *Store) ListTransactionsByUserID(ctx context.Context, userID string, limit int32) ([]models.Transaction, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.TransactionsTableName),
		IndexName:              aws.String(userIDCreatedAtIndex),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false), // Most recent first
		Limit:            &limit,
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by user ID: %w", err)
	}

	var transactions []models.Transaction
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &transactions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
	}

	return transactions, nil
}

// ListTransactionsByType retrieves every transaction of one type created between from and to, inclusive.
func (s *Store) ListTransactionsByType(ctx context.Context, txType models.TransactionType, from, to time.Time) ([]models.Transaction, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.TransactionsTableName),
		IndexName:              aws.String(typeCreatedAtIndex),
		KeyConditionExpression: aws.String("#type = :type AND created_at BETWEEN :from AND :to"),
		ExpressionAttributeNames: map[string]string{
			"#type": "type",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":type": &types.AttributeValueMemberS{Value: string(txType)},
			":from": &types.AttributeValueMemberS{Value: formatTime(from)},
			":to":   &types.AttributeValueMemberS{Value: formatTime(to)},
		},
	}

	items, err := s.queryAll(ctx, input)
	if err != nil {
		return nil, err
	}

	var transactions []models.Transaction
	if err := attributevalue.UnmarshalListOfMaps(items, &transactions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
	}

	return transactions, nil
}

// ListTournamentCharges retrieves a user's entry fee transactions for one tournament, oldest first.
func (s *Store) ListTournamentCharges(ctx context.Context, userID, tournamentID string) ([]models.Transaction, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.TransactionsTableName),
		IndexName:              aws.String(userIDCreatedAtIndex),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("#type = :type AND #metadata.#tid = :tid"),
		ExpressionAttributeNames: map[string]string{
			"#type":     "type",
			"#metadata": "metadata",
			"#tid":      models.MetaTournamentID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid":  &types.AttributeValueMemberS{Value: userID},
			":type": &types.AttributeValueMemberS{Value: string(models.ENTRY_FEE)},
			":tid":  &types.AttributeValueMemberS{Value: tournamentID},
		},
		ScanIndexForward: aws.Bool(true),
	}

	items, err := s.queryAll(ctx, input)
	if err != nil {
		return nil, err
	}

	var transactions []models.Transaction
	if err := attributevalue.UnmarshalListOfMaps(items, &transactions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tournament charges: %w", err)
	}

	return transactions, nil
}
