package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message is done and its offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r           messageReader
	workers     int
	maxAttempts int
	backoff     time.Duration
	log         zerolog.Logger
}

func NewConsumer(brokers []string, group, topic string, workers int, log zerolog.Logger) *Consumer {
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

func newConsumer(r messageReader, workers int, log zerolog.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, maxAttempts: 5, backoff: 200 * time.Millisecond, log: log}
}

// ErrMessageNotProcessed is returned by Start when a message still fails after
// every retry. Its offset and everything after it on the partition stay
// uncommitted, so the group redelivers them once the consumer is restarted.
var ErrMessageNotProcessed = errors.New("message not processed")

// Start runs until ctx is cancelled or a message exhausts its retries.
// Each partition is handled by a single worker, in offset order, so a commit
// never skips past an unprocessed message. Messages with the same key share a
// partition and therefore keep their order too.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	jobs := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range jobs {
		jobs[i] = make(chan kafka.Message, 64)
		wg.Add(1)
		go func(in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				if ctx.Err() != nil {
					continue
				}
				if err := c.process(ctx, h, m); err != nil {
					cancel(err)
				}
			}
		}(jobs[i])
	}
	stop := func() error {
		for _, ch := range jobs {
			close(ch)
		}
		wg.Wait()
		if cause := context.Cause(ctx); errors.Is(cause, ErrMessageNotProcessed) {
			return cause
		}
		return nil
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return stop()
			}
			stop()
			return err
		}
		select {
		case jobs[c.slot(m.Partition)] <- m:
		case <-ctx.Done():
			return stop()
		}
	}
}

func (c *Consumer) slot(partition int) int {
	if c.workers == 1 || partition < 0 {
		return 0
	}
	return partition % c.workers
}

// process retries h with backoff and commits on success. It returns
// ErrMessageNotProcessed when the retries run out; cancellation is not an error.
func (c *Consumer) process(ctx context.Context, h Handler, m kafka.Message) error {
	wait := c.backoff
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil
		}
		if attempt >= c.maxAttempts {
			c.log.Error().Err(err).Str("topic", m.Topic).Int("partition", m.Partition).Int64("offset", m.Offset).Int("attempts", attempt).Msg("message not processed, stopping consumer")
			return fmt.Errorf("%w: %s/%d@%d: %v", ErrMessageNotProcessed, m.Topic, m.Partition, m.Offset, err)
		}
		c.log.Warn().Err(err).Str("topic", m.Topic).Int64("offset", m.Offset).Int("attempt", attempt).Msg("handler failed, retrying")
		select {
		case <-time.After(wait):
			wait *= 2
		case <-ctx.Done():
			return nil
		}
	}
	if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		c.log.Error().Err(err).Str("topic", m.Topic).Int64("offset", m.Offset).Msg("commit offset")
	}
	return nil
}
