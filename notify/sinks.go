package notify

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// LogSink writes every notification to the logger.
type LogSink struct {
	Logger *log.Logger
}

func (s LogSink) Notify(_ context.Context, n Notification) error {
	s.Logger.WithFields(log.Fields{
		"achievement": n.ID,
		"title":       n.Title,
		"unlocked_at": n.UnlockedAt,
	}).Infof("%s Achievement unlocked: %s", n.Icon, n.Title)
	return nil
}

// RedisSink publishes notifications as JSON on a pub/sub channel.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Notify(ctx context.Context, n Notification) error {
	data, err := sonic.Marshal(n)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, data).Err()
}

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// QueueSink enqueues notifications on an Azure storage queue.
type QueueSink struct {
	queue queueClient
}

// NewQueueSink creates a QueueSink from the given connection string.
func NewQueueSink(connStr, queueName string) (*QueueSink, *azqueue.QueueClient, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, &opts)
	if err != nil {
		return nil, nil, err
	}
	return &QueueSink{queue: q}, q, nil
}

// EnsureQueue creates the queue unless it already exists.
func EnsureQueue(ctx context.Context, q *azqueue.QueueClient) error {
	_, err := q.Create(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if !(errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists") {
			return err
		}
	}
	return nil
}

func (s *QueueSink) Notify(ctx context.Context, n Notification) error {
	data, err := sonic.Marshal(n)
	if err != nil {
		return err
	}
	_, err = s.queue.EnqueueMessage(ctx, string(data), nil)
	return err
}
