package firehose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chive-pub/chive-sub016/internal/metrics"
)

var errStreamEnded = errors.New("stream ended")

// Stream is one live event-stream connection. Consume blocks until the
// connection breaks or ctx is cancelled.
type Stream interface {
	Consume(ctx context.Context) error
	Close() error
}

// Dialer opens a new stream connection to the upstream relay.
type Dialer interface {
	Dial(ctx context.Context) (Stream, error)
}

// Consumer drives a long-lived stream connection, consulting its
// ReconnectPolicy whenever the connection drops. The policy instance is
// confined to this loop; nothing else mutates it.
type Consumer struct {
	dialer  Dialer
	policy  *ReconnectPolicy
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewConsumer(dialer Dialer, policy *ReconnectPolicy, logger *slog.Logger, m *metrics.Metrics) *Consumer {
	if policy == nil {
		policy = NewReconnectPolicy(ReconnectOptions{})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{dialer: dialer, policy: policy, logger: logger, metrics: m}
}

// Run dials and consumes until ctx is cancelled or the policy's attempt budget
// is exhausted. The wait between attempts is a cancellable suspension point: a
// shutdown signal aborts it immediately rather than blocking exit.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		stream, err := c.dialer.Dial(ctx)
		if err == nil {
			c.policy.Reset()
			c.metrics.ObserveStreamConnection()
			c.logger.Info("stream connected")
			err = stream.Consume(ctx)
			if cerr := stream.Close(); cerr != nil {
				c.logger.Debug("stream close failed", "error", cerr)
			}
			if err == nil {
				err = errStreamEnded
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := c.policy.CalculateDelay()
		c.policy.RecordAttempt()
		c.metrics.ObserveReconnectAttempt()
		if !c.policy.ShouldRetry() {
			return fmt.Errorf("reconnect budget exhausted after %d attempts: %w", c.policy.Attempts(), err)
		}
		c.logger.Warn("stream disconnected, reconnecting",
			"attempt", c.policy.Attempts(),
			"delay", delay.String(),
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
