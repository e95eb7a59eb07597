package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type SQSRepository struct {
	client *sqs.Client
}

func NewSQSRepository(cfg aws.Config) *SQSRepository {
	return &SQSRepository{
		client: sqs.NewFromConfig(cfg),
	}
}

func (r *SQSRepository) ReceiveMessages(ctx context.Context, queueURL string) ([]types.Message, error) {
	output, err := r.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     20,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to receive messages: %w", err)
	}
	return output.Messages, nil
}

func (r *SQSRepository) SendMessage(ctx context.Context, queueURL string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return r.SendRaw(ctx, queueURL, string(jsonBody))
}

// SendRaw forwards an already-serialized body unchanged. Used for routing
// poison messages to a dead-letter queue with their original payload intact.
func (r *SQSRepository) SendRaw(ctx context.Context, queueURL string, body string) error {
	_, err := r.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (r *SQSRepository) DeleteMessage(ctx context.Context, queueURL string, receiptHandle string) error {
	_, err := r.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
