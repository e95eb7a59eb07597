package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go/middleware"
	"github.com/stretchr/testify/assert"
)

// Mock middleware to return specific output or error
func mockSQSMiddleware(output interface{}, err error) func(*middleware.Stack) error {
	return func(stack *middleware.Stack) error {
		return stack.Finalize.Add(
			middleware.FinalizeMiddlewareFunc("MockMiddleware", func(context.Context, middleware.FinalizeInput, middleware.FinalizeHandler) (middleware.FinalizeOutput, middleware.Metadata, error) {
				return middleware.FinalizeOutput{
					Result: output,
				}, middleware.Metadata{}, err
			}),
			middleware.Before,
		)
	}
}

func newMockedSQSRepository(output interface{}, err error) *SQSRepository {
	client := sqs.NewFromConfig(aws.Config{}, func(o *sqs.Options) {
		o.APIOptions = append(o.APIOptions, mockSQSMiddleware(output, err))
	})
	return &SQSRepository{client: client}
}

func TestSQSRepository_ReceiveMessages(t *testing.T) {
	output := &sqs.ReceiveMessageOutput{
		Messages: []types.Message{
			{Body: aws.String(`{"id":7}`), ReceiptHandle: aws.String("h1")},
		},
	}
	repo := newMockedSQSRepository(output, nil)
	messages, err := repo.ReceiveMessages(context.TODO(), "queue-url")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(messages))
	assert.Equal(t, "h1", *messages[0].ReceiptHandle)

	repoErr := newMockedSQSRepository(nil, errors.New("aws error"))
	_, err = repoErr.ReceiveMessages(context.TODO(), "queue-url")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to receive messages")
}

func TestSQSRepository_SendMessage(t *testing.T) {
	repo := newMockedSQSRepository(&sqs.SendMessageOutput{}, nil)
	err := repo.SendMessage(context.TODO(), "queue-url", map[string]string{"key": "value"})
	assert.NoError(t, err)

	repoErr := newMockedSQSRepository(nil, errors.New("aws error"))
	err = repoErr.SendMessage(context.TODO(), "queue-url", map[string]string{"key": "value"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send message")
}

func TestSQSRepository_SendMessage_MarshalError(t *testing.T) {
	repo := newMockedSQSRepository(&sqs.SendMessageOutput{}, nil)

	// Channel cannot be marshaled to JSON
	msg := map[string]interface{}{
		"key": make(chan int),
	}
	err := repo.SendMessage(context.TODO(), "queue-url", msg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal message")
}

func TestSQSRepository_SendRaw(t *testing.T) {
	repo := newMockedSQSRepository(&sqs.SendMessageOutput{}, nil)
	err := repo.SendRaw(context.TODO(), "queue-url.failed", `{"id":7}`)
	assert.NoError(t, err)
}

func TestSQSRepository_DeleteMessage(t *testing.T) {
	repo := newMockedSQSRepository(&sqs.DeleteMessageOutput{}, nil)
	err := repo.DeleteMessage(context.TODO(), "queue-url", "receipt-handle")
	assert.NoError(t, err)

	repoErr := newMockedSQSRepository(nil, errors.New("aws error"))
	err = repoErr.DeleteMessage(context.TODO(), "queue-url", "receipt-handle")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete message")
}
