package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/storage"
	"github.com/chris/tournament-wallet/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestStore(client DynamoDBAPI) *Store {
	return New(client, "accounts", "transactions", "tournaments", "registrations")
}

func TestCreateAccount(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			return *in.TableName == "accounts" && *in.ConditionExpression == "attribute_not_exists(user_id)"
		})).Return(&dynamodb.PutItemOutput{}, nil)

		store := newTestStore(mockClient)
		account, err := store.CreateAccount(context.Background(), "test-user")

		assert.NoError(t, err)
		assert.Equal(t, "test-user", account.UserId)
		assert.Equal(t, int64(0), account.Balance)
		mockClient.AssertExpectations(t)
	})

	t.Run("Conflict", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		store := newTestStore(mockClient)
		_, err := store.CreateAccount(context.Background(), "test-user")

		assert.ErrorIs(t, err, storage.ErrAccountExists)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := newTestStore(mockClient)
		_, err := store.CreateAccount(context.Background(), "test-user")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create account in DynamoDB")
		mockClient.AssertExpectations(t)
	})
}

func TestGetAccount(t *testing.T) {
	account := &models.Account{
		UserId:    "test-user",
		Balance:   100,
		Version:   3,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		accountAV, _ := attributevalue.MarshalMap(account)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: accountAV}, nil)

		store := newTestStore(mockClient)
		retrieved, err := store.GetAccount(context.Background(), "test-user")

		assert.NoError(t, err)
		assert.Equal(t, account, retrieved)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil)

		store := newTestStore(mockClient)
		_, err := store.GetAccount(context.Background(), "test-user")

		assert.ErrorIs(t, err, storage.ErrAccountNotFound)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := newTestStore(mockClient)
		_, err := store.GetAccount(context.Background(), "test-user")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get account from DynamoDB")
		mockClient.AssertExpectations(t)
	})
}
