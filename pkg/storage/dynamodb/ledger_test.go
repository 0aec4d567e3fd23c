package dynamodb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/storage"
	"github.com/chris/tournament-wallet/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func cancelled(codes ...string) error {
	reasons := make([]types.CancellationReason, len(codes))
	for i, code := range codes {
		reasons[i] = types.CancellationReason{Code: aws.String(code)}
	}
	return &types.TransactionCanceledException{CancellationReasons: reasons}
}

func TestApplyDebit(t *testing.T) {
	tx := &models.Transaction{
		Id:        "tx-1",
		UserId:    "user1",
		Type:      models.ENTRY_FEE,
		Amount:    -100,
		Status:    models.COMPLETED,
		Metadata:  map[string]string{models.MetaTournamentID: "t1"},
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	account := &models.Account{UserId: "user1", Balance: 100}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			update := in.TransactItems[0].Update
			amount := update.ExpressionAttributeValues[":amount"].(*types.AttributeValueMemberN)
			createdAt := in.TransactItems[1].Put.Item["created_at"].(*types.AttributeValueMemberS)
			return *update.ConditionExpression == "attribute_exists(user_id) AND balance >= :amount" &&
				amount.Value == "100" &&
				*in.TransactItems[1].Put.ConditionExpression == "attribute_not_exists(id)" &&
				createdAt.Value == "2025-01-01T00:00:00.000000000Z"
		})).Once().Return(&dynamodb.TransactWriteItemsOutput{}, nil)
		accountAV, _ := attributevalue.MarshalMap(account)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Once().Return(&dynamodb.GetItemOutput{Item: accountAV}, nil)

		store := newTestStore(mockClient)
		result, err := store.ApplyDebit(context.Background(), tx)

		assert.NoError(t, err)
		assert.Equal(t, int64(100), result.Balance)
		mockClient.AssertExpectations(t)
	})

	t.Run("Withdraw Updates Counter", func(t *testing.T) {
		withdraw := *tx
		withdraw.Type = models.WITHDRAW

		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			return strings.Contains(*in.TransactItems[0].Update.UpdateExpression, "total_withdrawn = if_not_exists(total_withdrawn, :zero) + :amount")
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil)
		accountAV, _ := attributevalue.MarshalMap(account)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: accountAV}, nil)

		store := newTestStore(mockClient)
		_, err := store.ApplyDebit(context.Background(), &withdraw)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Committed But Reload Failed", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Once().Return(&dynamodb.TransactWriteItemsOutput{}, nil)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Once().Return(nil, errors.New("throttled"))

		store := newTestStore(mockClient)
		result, err := store.ApplyDebit(context.Background(), tx)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, storage.ErrBalanceUnavailable)
		assert.NotErrorIs(t, err, storage.ErrInsufficientFunds)
		mockClient.AssertExpectations(t)
	})

	t.Run("Insufficient Funds", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelled("ConditionalCheckFailed", "None"))

		store := newTestStore(mockClient)
		_, err := store.ApplyDebit(context.Background(), tx)

		assert.ErrorIs(t, err, storage.ErrInsufficientFunds)
		mockClient.AssertExpectations(t)
	})

	t.Run("Duplicate Transaction", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelled("ConditionalCheckFailed", "ConditionalCheckFailed"))

		store := newTestStore(mockClient)
		_, err := store.ApplyDebit(context.Background(), tx)

		assert.ErrorIs(t, err, storage.ErrDuplicateTransaction)
		mockClient.AssertExpectations(t)
	})

	t.Run("Positive Amount Rejected", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		positive := *tx
		positive.Amount = 100

		store := newTestStore(mockClient)
		_, err := store.ApplyDebit(context.Background(), &positive)

		assert.Error(t, err)
		mockClient.AssertNotCalled(t, "TransactWriteItems", mock.Anything, mock.Anything)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, errors.New("transaction failed"))

		store := newTestStore(mockClient)
		_, err := store.ApplyDebit(context.Background(), tx)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to execute transaction")
		mockClient.AssertExpectations(t)
	})
}

func TestApplyCredit(t *testing.T) {
	tx := &models.Transaction{
		Id:        "refund-tx-1",
		UserId:    "user1",
		Type:      models.REFUND,
		Amount:    100,
		Status:    models.COMPLETED,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			update := in.TransactItems[0].Update
			headroom := update.ExpressionAttributeValues[":headroom"].(*types.AttributeValueMemberN)
			return *update.ConditionExpression == "(attribute_not_exists(balance) OR balance <= :headroom)" &&
				headroom.Value == "9223372036854775707" &&
				strings.HasPrefix(*update.UpdateExpression, "SET balance = if_not_exists(balance, :zero) + :amount")
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil)
		accountAV, _ := attributevalue.MarshalMap(&models.Account{UserId: "user1", Balance: 100})
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: accountAV}, nil)

		store := newTestStore(mockClient)
		account, err := store.ApplyCredit(context.Background(), tx)

		assert.NoError(t, err)
		assert.Equal(t, int64(100), account.Balance)
		mockClient.AssertExpectations(t)
	})

	t.Run("Deposit Guards Running Total", func(t *testing.T) {
		deposit := *tx
		deposit.Type = models.DEPOSIT

		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			return strings.HasSuffix(*in.TransactItems[0].Update.ConditionExpression,
				"AND (attribute_not_exists(total_deposited) OR total_deposited <= :headroom)")
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil)
		accountAV, _ := attributevalue.MarshalMap(&models.Account{UserId: "user1", Balance: 100})
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: accountAV}, nil)

		store := newTestStore(mockClient)
		_, err := store.ApplyCredit(context.Background(), &deposit)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Balance Limit", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelled("ConditionalCheckFailed", "None"))

		store := newTestStore(mockClient)
		_, err := store.ApplyCredit(context.Background(), tx)

		assert.ErrorIs(t, err, storage.ErrBalanceLimit)
		mockClient.AssertExpectations(t)
	})

	t.Run("Committed But Reload Failed", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(&dynamodb.TransactWriteItemsOutput{}, nil)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

		store := newTestStore(mockClient)
		_, err := store.ApplyCredit(context.Background(), tx)

		assert.ErrorIs(t, err, storage.ErrBalanceUnavailable)
		mockClient.AssertExpectations(t)
	})

	t.Run("Duplicate Transaction", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelled("None", "ConditionalCheckFailed"))

		store := newTestStore(mockClient)
		_, err := store.ApplyCredit(context.Background(), tx)

		assert.ErrorIs(t, err, storage.ErrDuplicateTransaction)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, errors.New("transaction failed"))

		store := newTestStore(mockClient)
		_, err := store.ApplyCredit(context.Background(), tx)

		assert.Error(t, err)
		assert.NotErrorIs(t, err, storage.ErrDuplicateTransaction)
		mockClient.AssertExpectations(t)
	})
}
