package notify

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

// MessageQueue is a visibility-timeout queue read one message at a time.
type MessageQueue interface {
	// Dequeue returns nil when the queue is empty.
	Dequeue(ctx context.Context) (*azqueue.DequeuedMessage, error)
	Delete(ctx context.Context, id, receipt string) error
}

// AzureQueue reads one message at a time from an Azure storage queue.
type AzureQueue struct {
	queue *azqueue.QueueClient
}

func NewAzureQueue(q *azqueue.QueueClient) *AzureQueue {
	return &AzureQueue{queue: q}
}

func (a *AzureQueue) Dequeue(ctx context.Context) (*azqueue.DequeuedMessage, error) {
	resp, err := a.queue.DequeueMessage(ctx, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}
	return resp.Messages[0], nil
}

func (a *AzureQueue) Delete(ctx context.Context, id, receipt string) error {
	_, err := a.queue.DeleteMessage(ctx, id, receipt, nil)
	return err
}

// Handler receives notifications read back from the queue.
type Handler func(ctx context.Context, n Notification) error

// Consumer drains notifications that a QueueSink enqueued.
type Consumer struct {
	queue MessageQueue
	log   *log.Logger
	idle  time.Duration
}

func NewConsumer(q MessageQueue, logger *log.Logger) *Consumer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Consumer{queue: q, log: logger, idle: time.Second}
}

// Next handles at most one message and reports whether one was available.
// Unparsable messages are deleted; a message whose handler fails stays on the
// queue and becomes visible again after its visibility timeout.
func (c *Consumer) Next(ctx context.Context, handle Handler) (bool, error) {
	msg, err := c.queue.Dequeue(ctx)
	if err != nil || msg == nil {
		return false, err
	}
	if msg.MessageID == nil || msg.PopReceipt == nil {
		return true, errors.New("notify: dequeued message without id or receipt")
	}

	var n Notification
	if msg.MessageText == nil || sonic.UnmarshalString(*msg.MessageText, &n) != nil || n.ID == "" {
		c.log.WithField("message", *msg.MessageID).Warn("discarding unparsable notification")
	} else if err := handle(ctx, n); err != nil {
		return true, err
	}
	return true, c.queue.Delete(ctx, *msg.MessageID, *msg.PopReceipt)
}

// Run consumes until ctx is done, sleeping between empty polls.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		got, err := c.Next(ctx, handle)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.WithError(err).Error("notification receive failed")
		}
		if got && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.idle):
		}
	}
}
