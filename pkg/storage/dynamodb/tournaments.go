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

// CreateTournament stores a new tournament record.
func (s *Store) CreateTournament(ctx context.Context, t *models.Tournament) error {
	t.PlayerCount = int64(len(t.RegisteredPlayers))

	tournamentAV, err := marshalMap(t)
	if err != nil {
		return fmt.Errorf("failed to marshal tournament: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.TournamentsTableName),
		Item:                tournamentAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	}

	if _, err := s.Client.PutItem(ctx, input); err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return fmt.Errorf("tournament %s: %w", t.Id, storage.ErrTournamentExists)
		}
		return fmt.Errorf("failed to create tournament in DynamoDB: %w", err)
	}

	return nil
}

// GetTournament retrieves a tournament with a strongly consistent read.
func (s *Store) GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.TournamentsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: tournamentID},
		},
		ConsistentRead: aws.Bool(true),
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("tournament %s: %w", tournamentID, storage.ErrTournamentNotFound)
	}

	var t models.Tournament
	if err := attributevalue.UnmarshalMap(result.Item, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tournament: %w", err)
	}

	return &t, nil
}

// ReserveSlot adds the user to the participant set in a single conditional update.
// The membership and capacity checks are evaluated by DynamoDB together with the write,
// and the old item is returned on failure so the two causes can be told apart.
func (s *Store) ReserveSlot(ctx context.Context, tournamentID, userID string) error {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TournamentsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: tournamentID},
		},
		UpdateExpression: aws.String("ADD registered_players :uidset, player_count :one"),
		ConditionExpression: aws.String("attribute_exists(id) AND " +
			"(attribute_not_exists(registered_players) OR NOT contains(registered_players, :uid)) AND " +
			"player_count < max_slots"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uidset": &types.AttributeValueMemberSS{Value: []string{userID}},
			":uid":    &types.AttributeValueMemberS{Value: userID},
			":one":    &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}

	_, err := s.Client.UpdateItem(ctx, input)
	if err == nil {
		return nil
	}

	var condCheckFailed *types.ConditionalCheckFailedException
	if !errors.As(err, &condCheckFailed) {
		return fmt.Errorf("failed to reserve slot in DynamoDB: %w", err)
	}
	if condCheckFailed.Item == nil {
		return fmt.Errorf("tournament %s: %w", tournamentID, storage.ErrTournamentNotFound)
	}

	var old models.Tournament
	if err := attributevalue.UnmarshalMap(condCheckFailed.Item, &old); err != nil {
		return fmt.Errorf("failed to unmarshal tournament: %w", err)
	}
	if old.HasPlayer(userID) {
		return storage.ErrAlreadyReserved
	}
	return storage.ErrSlotUnavailable
}

// EnsurePlayer adds the user to the participant set if missing, without a capacity check.
func (s *Store) EnsurePlayer(ctx context.Context, tournamentID, userID string) error {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TournamentsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: tournamentID},
		},
		UpdateExpression: aws.String("ADD registered_players :uidset, player_count :one"),
		ConditionExpression: aws.String("attribute_exists(id) AND " +
			"(attribute_not_exists(registered_players) OR NOT contains(registered_players, :uid))"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uidset": &types.AttributeValueMemberSS{Value: []string{userID}},
			":uid":    &types.AttributeValueMemberS{Value: userID},
			":one":    &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}

	_, err := s.Client.UpdateItem(ctx, input)
	if err == nil {
		return nil
	}

	var condCheckFailed *types.ConditionalCheckFailedException
	if !errors.As(err, &condCheckFailed) {
		return fmt.Errorf("failed to add player in DynamoDB: %w", err)
	}
	if condCheckFailed.Item == nil {
		return fmt.Errorf("tournament %s: %w", tournamentID, storage.ErrTournamentNotFound)
	}
	// Already present.
	return nil
}
