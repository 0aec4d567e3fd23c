package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/storage"
)

// CreateRegistration inserts a registration keyed by (tournament_id, user_id).
func (s *Store) CreateRegistration(ctx context.Context, reg *models.Registration) error {
	regAV, err := marshalMap(reg)
	if err != nil {
		return fmt.Errorf("failed to marshal registration: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.RegistrationsTableName),
		Item:                regAV,
		ConditionExpression: aws.String("attribute_not_exists(tournament_id)"),
	}

	if _, err := s.Client.PutItem(ctx, input); err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrRegistrationExists
		}
		return fmt.Errorf("failed to create registration in DynamoDB: %w", err)
	}

	return nil
}

// GetRegistration retrieves the registration of a user for a tournament.
func (s *Store) GetRegistration(ctx context.Context, tournamentID, userID string) (*models.Registration, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.RegistrationsTableName),
		Key: map[string]types.AttributeValue{
			"tournament_id": &types.AttributeValueMemberS{Value: tournamentID},
			"user_id":       &types.AttributeValueMemberS{Value: userID},
		},
		ConsistentRead: aws.Bool(true),
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, storage.ErrRegistrationNotFound
	}

	var reg models.Registration
	if err := attributevalue.UnmarshalMap(result.Item, &reg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal registration: %w", err)
	}

	return &reg, nil
}

// ListRegistrations retrieves every registration of a tournament.
func (s *Store) ListRegistrations(ctx context.Context, tournamentID string) ([]models.Registration, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.RegistrationsTableName),
		KeyConditionExpression: aws.String("tournament_id = :tid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tid": &types.AttributeValueMemberS{Value: tournamentID},
		},
		ConsistentRead: aws.Bool(true),
	}

	items, err := s.queryAll(ctx, input)
	if err != nil {
		return nil, err
	}

	var regs []models.Registration
	if err := attributevalue.UnmarshalListOfMaps(items, &regs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal registrations: %w", err)
	}

	return regs, nil
}
