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

func TestGetTransaction(t *testing.T) {
	tx := &models.Transaction{
		Id:        "tx-1",
		UserId:    "user1",
		Type:      models.DEPOSIT,
		Amount:    50,
		Status:    models.COMPLETED,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		txAV, _ := attributevalue.MarshalMap(tx)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: txAV}, nil)

		store := newTestStore(mockClient)
		result, err := store.GetTransaction(context.Background(), "tx-1")

		assert.NoError(t, err)
		assert.Equal(t, tx, result)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

		store := newTestStore(mockClient)
		_, err := store.GetTransaction(context.Background(), "tx-1")

		assert.ErrorIs(t, err, storage.ErrTransactionNotFound)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := newTestStore(mockClient)
		_, err := store.GetTransaction(context.Background(), "tx-1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get transaction from DynamoDB")
		mockClient.AssertExpectations(t)
	})
}

func TestListTransactionsByUserID(t *testing.T) {
	transactions := []models.Transaction{{Id: "tx-2", UserId: "user1"}, {Id: "tx-1", UserId: "user1"}}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		items := make([]map[string]types.AttributeValue, len(transactions))
		for i, tx := range transactions {
			items[i], _ = attributevalue.MarshalMap(tx)
		}
		mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			return *in.IndexName == userIDCreatedAtIndex && !*in.ScanIndexForward && *in.Limit == 20
		})).Return(&dynamodb.QueryOutput{Items: items}, nil)

		store := newTestStore(mockClient)
		result, err := store.ListTransactionsByUserID(context.Background(), "user1", 20)

		assert.NoError(t, err)
		assert.Len(t, result, 2)
		assert.Equal(t, "tx-2", result[0].Id)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := newTestStore(mockClient)
		_, err := store.ListTransactionsByUserID(context.Background(), "user1", 20)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query transactions by user ID")
		mockClient.AssertExpectations(t)
	})
}

func TestListTransactionsByType(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	t.Run("Follows Pages", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		first, _ := attributevalue.MarshalMap(models.Transaction{Id: "tx-1", Type: models.ENTRY_FEE})
		second, _ := attributevalue.MarshalMap(models.Transaction{Id: "tx-2", Type: models.ENTRY_FEE})
		lastKey := map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "tx-1"}}

		mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			return *in.IndexName == typeCreatedAtIndex && in.ExclusiveStartKey == nil
		})).Once().Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{first}, LastEvaluatedKey: lastKey}, nil)
		mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			return in.ExclusiveStartKey != nil
		})).Once().Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{second}}, nil)

		store := newTestStore(mockClient)
		result, err := store.ListTransactionsByType(context.Background(), models.ENTRY_FEE, from, to)

		assert.NoError(t, err)
		assert.Len(t, result, 2)
		mockClient.AssertExpectations(t)
	})

	t.Run("Fixed Width Bounds", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			lower := in.ExpressionAttributeValues[":from"].(*types.AttributeValueMemberS)
			upper := in.ExpressionAttributeValues[":to"].(*types.AttributeValueMemberS)
			return lower.Value == "2025-01-01T00:00:00.000000000Z" &&
				upper.Value == "2025-01-01T01:00:00.500000000Z"
		})).Return(&dynamodb.QueryOutput{}, nil)

		store := newTestStore(mockClient)
		_, err := store.ListTransactionsByType(context.Background(), models.ENTRY_FEE, from, to.Add(500*time.Millisecond))

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := newTestStore(mockClient)
		_, err := store.ListTransactionsByType(context.Background(), models.ENTRY_FEE, from, to)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query transactions")
		mockClient.AssertExpectations(t)
	})
}

func TestListTournamentCharges(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		charge, _ := attributevalue.MarshalMap(models.Transaction{
			Id:       "tx-1",
			UserId:   "user1",
			Type:     models.ENTRY_FEE,
			Amount:   -100,
			Metadata: map[string]string{models.MetaTournamentID: "t1"},
		})
		mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			tid := in.ExpressionAttributeValues[":tid"].(*types.AttributeValueMemberS)
			return *in.FilterExpression == "#type = :type AND #metadata.#tid = :tid" && tid.Value == "t1"
		})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{charge}}, nil)

		store := newTestStore(mockClient)
		result, err := store.ListTournamentCharges(context.Background(), "user1", "t1")

		assert.NoError(t, err)
		assert.Len(t, result, 1)
		assert.Equal(t, "t1", result[0].TournamentID())
		mockClient.AssertExpectations(t)
	})
}
