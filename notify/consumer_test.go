package notify

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/sirupsen/logrus/hooks/test"
)

type memQueue struct {
	msgs    []*azqueue.DequeuedMessage
	deleted []string
	err     error
}

func (m *memQueue) push(text string) {
	id := strconv.Itoa(len(m.msgs) + len(m.deleted))
	receipt := "r" + id
	m.msgs = append(m.msgs, &azqueue.DequeuedMessage{MessageID: &id, PopReceipt: &receipt, MessageText: &text})
}

func (m *memQueue) Dequeue(context.Context) (*azqueue.DequeuedMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.msgs) == 0 {
		return nil, nil
	}
	return m.msgs[0], nil
}

func (m *memQueue) Delete(_ context.Context, id, receipt string) error {
	if len(m.msgs) == 0 || *m.msgs[0].MessageID != id || *m.msgs[0].PopReceipt != receipt {
		return errors.New("unknown message")
	}
	m.msgs = m.msgs[1:]
	m.deleted = append(m.deleted, id)
	return nil
}

func TestConsumerHandlesAndDeletes(t *testing.T) {
	q := &memQueue{}
	q.push(`{"id":"streak_3","title":"3 Day Streak","icon":"🔥","unlockedAt":"2024-05-03T09:00:00Z"}`)
	q.push(`not json`)
	logger, hook := test.NewNullLogger()
	c := NewConsumer(q, logger)

	var got []Notification
	handle := func(_ context.Context, n Notification) error {
		got = append(got, n)
		return nil
	}
	for i := 0; i < 2; i++ {
		ok, err := c.Next(context.Background(), handle)
		if !ok || err != nil {
			t.Fatalf("next %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, err := c.Next(context.Background(), handle); ok || err != nil {
		t.Fatalf("expected empty queue, got ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].ID != "streak_3" {
		t.Fatalf("unexpected notifications %+v", got)
	}
	if len(q.deleted) != 2 {
		t.Fatalf("expected both messages deleted, got %v", q.deleted)
	}
	if hook.LastEntry() == nil || hook.LastEntry().Message != "discarding unparsable notification" {
		t.Fatalf("expected warning for bad message")
	}
}

func TestConsumerKeepsMessageOnHandlerError(t *testing.T) {
	q := &memQueue{}
	q.push(`{"id":"tasks_10","title":"Getting Started"}`)
	c := NewConsumer(q, nil)
	_, err := c.Next(context.Background(), func(context.Context, Notification) error { return errors.New("boom") })
	if err == nil {
		t.Fatalf("expected handler error")
	}
	if len(q.msgs) != 1 || len(q.deleted) != 0 {
		t.Fatalf("message should stay queued")
	}
}

func TestConsumerRunStopsOnCancel(t *testing.T) {
	q := &memQueue{err: errors.New("unavailable")}
	logger, _ := test.NewNullLogger()
	c := NewConsumer(q, logger)
	c.idle = time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.Run(ctx, func(context.Context, Notification) error { return nil }); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
