package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/tournament-wallet/pkg/models"
	"github.com/chris/tournament-wallet/pkg/scheduler/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestScheduleRepair(t *testing.T) {
	charge := &models.Transaction{
		Id:       "tx-1",
		UserId:   "user1",
		Type:     models.ENTRY_FEE,
		Amount:   -100,
		Metadata: map[string]string{models.MetaTournamentID: "t1"},
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.SQSAPI)
		mockClient.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
			var decoded models.Transaction
			if err := json.Unmarshal([]byte(*in.MessageBody), &decoded); err != nil {
				return false
			}
			return *in.QueueUrl == "queue-url" &&
				decoded.Id == "tx-1" &&
				*in.MessageAttributes["tournament_id"].StringValue == "t1"
		})).Return(&sqs.SendMessageOutput{}, nil)

		s := NewSQSScheduler(mockClient, "queue-url")
		err := s.ScheduleRepair(context.Background(), charge)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Send Fails", func(t *testing.T) {
		mockClient := new(mocks.SQSAPI)
		mockClient.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("queue gone"))

		s := NewSQSScheduler(mockClient, "queue-url")
		err := s.ScheduleRepair(context.Background(), charge)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send message to SQS")
		mockClient.AssertExpectations(t)
	})
}
