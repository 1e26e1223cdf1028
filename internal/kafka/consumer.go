package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	retryMin = 200 * time.Millisecond
	retryMax = 5 * time.Second
)

// Handler returns nil only when the message is done and its offset may be
// committed.
type Handler func(ctx context.Context, m kafka.Message) error

// reader is the part of *kafka.Reader the consumer drives.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r        reader
	workers  int
	retryMin time.Duration
	log      *slog.Logger
}

func NewConsumer(brokers []string, group, topic string, workers int, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return newConsumer(r, workers, log)
}

func newConsumer(r reader, workers int, log *slog.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, retryMin: retryMin, log: log}
}

// Start blocks until ctx is cancelled or the reader fails.
//
// Each partition is pinned to one worker (partition % workers), and a worker
// finishes a message, retrying with backoff, before it takes the next one.
// Offsets of a partition are therefore committed in order and never past a
// message whose handler has not succeeded.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	slots := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range slots {
		slots[i] = make(chan kafka.Message, 128)
		wg.Add(1)
		go func(in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				if !c.handle(ctx, h, m) {
					// cancelled mid-retry; leave the rest uncommitted
					for range in {
					}
					return
				}
			}
		}(slots[i])
	}
	finish := func() {
		for _, s := range slots {
			close(s)
		}
		wg.Wait()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			finish()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case slots[m.Partition%c.workers] <- m:
		case <-ctx.Done():
			finish()
			return nil
		}
	}
}

// handle reports false when ctx ended before the message was committed.
func (c *Consumer) handle(ctx context.Context, h Handler, m kafka.Message) bool {
	backoff := c.retryMin
	for {
		err := h(ctx, m)
		if err == nil {
			if err := c.r.CommitMessages(ctx, m); err != nil {
				if ctx.Err() != nil {
					return false
				}
				c.log.Error("commit failed", "topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)
			}
			return true
		}
		c.log.Warn("handler failed", "topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "retry_in", backoff, "err", err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, retryMax)
	}
}
