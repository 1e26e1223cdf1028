package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-pickup-inventory/internal/logging"
)

type committed struct {
	partition int
	offset    int64
}

// fakeReader hands out a fixed batch, then blocks until ctx ends.
type fakeReader struct {
	mu      sync.Mutex
	pending []kafka.Message
	commits []committed
	closed  bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.pending) > 0 {
		m := f.pending[0]
		f.pending = f.pending[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.commits = append(f.commits, committed{m.Partition, m.Offset})
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeReader) committedOn(partition int) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int64
	for _, c := range f.commits {
		if c.partition == partition {
			out = append(out, c.offset)
		}
	}
	return out
}

func TestConsumer_CommitsStayInOrderWhileRetrying(t *testing.T) {
	r := &fakeReader{pending: []kafka.Message{
		{Partition: 0, Offset: 5},
		{Partition: 0, Offset: 6},
		{Partition: 1, Offset: 0},
	}}
	c := newConsumer(r, 4, logging.Discard())
	c.retryMin = time.Millisecond

	var mu sync.Mutex
	handled := map[int64]int{}
	h := func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		if m.Partition == 0 {
			handled[m.Offset]++
		}
		// offset 5 keeps failing until the other partition has been committed
		if m.Partition == 0 && m.Offset == 5 && len(r.committedOn(1)) == 0 {
			return errors.New("store unavailable")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()

	require.Eventually(t, func() bool { return len(r.committedOn(0)) == 2 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{5, 6}, r.committedOn(0))
	assert.Equal(t, []int64{0}, r.committedOn(1))
	mu.Lock()
	assert.Greater(t, handled[5], 1, "offset 5 was retried")
	assert.Equal(t, 1, handled[6], "offset 6 waited for 5")
	mu.Unlock()
	assert.True(t, r.closed)
}

func TestConsumer_CancelDuringRetryCommitsNothing(t *testing.T) {
	r := &fakeReader{pending: []kafka.Message{{Partition: 0, Offset: 1}, {Partition: 0, Offset: 2}}}
	c := newConsumer(r, 1, logging.Discard())
	c.retryMin = time.Millisecond

	attempts := make(chan struct{}, 100)
	h := func(_ context.Context, m kafka.Message) error {
		select {
		case attempts <- struct{}{}:
		default:
		}
		return errors.New("always failing")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()

	<-attempts
	<-attempts
	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, r.committedOn(0))
}
