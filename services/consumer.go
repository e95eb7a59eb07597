package services

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"ocr-worker/domain"
)

type ConsumerQueue interface {
	ReceiveMessages(ctx context.Context, queueURL string) ([]types.Message, error)
	SendRaw(ctx context.Context, queueURL string, body string) error
	DeleteMessage(ctx context.Context, queueURL string, receiptHandle string) error
}

// Consumer is one pipeline stage's receive loop. Ack discipline:
//   - handler success: delete (ack-after-effect)
//   - fatal error: copy the message to the failed queue, then delete
//   - retryable error: leave unacked; the broker redelivers and its redrive
//     policy dead-letters after the configured maximum
type Consumer struct {
	name           string
	queue          ConsumerQueue
	queueURL       string
	failedQueueURL string
	handle         func(ctx context.Context, body []byte) error
	retryDelay     time.Duration
}

func NewConsumer(name string, queue ConsumerQueue, queueURL, failedQueueURL string, handle func(ctx context.Context, body []byte) error) *Consumer {
	return &Consumer{
		name:           name,
		queue:          queue,
		queueURL:       queueURL,
		failedQueueURL: failedQueueURL,
		handle:         handle,
		retryDelay:     5 * time.Second,
	}
}

func (c *Consumer) Start(ctx context.Context) {
	log.Printf("[%s] consumer started on %s", c.name, c.queueURL)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[%s] consumer stopping...", c.name)
			return
		default:
			messages, err := c.queue.ReceiveMessages(ctx, c.queueURL)
			if err != nil {
				if ctx.Err() != nil {
					// Shutdown raced the long poll.
					continue
				}
				log.Printf("[%s] error receiving messages: %v", c.name, err)
				time.Sleep(c.retryDelay)
				continue
			}

			for _, msg := range messages {
				c.handleMessage(ctx, msg)
			}
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg types.Message) {
	body := aws.ToString(msg.Body)

	err := c.handle(ctx, []byte(body))
	switch {
	case err == nil:
		c.ack(ctx, msg)
	case domain.IsFatal(err):
		log.Printf("[%s] fatal: %v, routing to %s", c.name, err, c.failedQueueURL)
		if dlqErr := c.queue.SendRaw(ctx, c.failedQueueURL, body); dlqErr != nil {
			// Keep the message unacked so it is not lost; the broker's
			// redrive policy will dead-letter it eventually.
			log.Printf("[%s] failed to dead-letter message: %v", c.name, dlqErr)
			return
		}
		c.ack(ctx, msg)
	default:
		log.Printf("[%s] retryable: %v (left for redelivery)", c.name, err)
	}
}

func (c *Consumer) ack(ctx context.Context, msg types.Message) {
	if err := c.queue.DeleteMessage(ctx, c.queueURL, aws.ToString(msg.ReceiptHandle)); err != nil {
		log.Printf("[%s] failed to delete message: %v", c.name, err)
	}
}
