package ledger

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/aiox-platform/agentbrain/internal/metrics"
	inats "github.com/aiox-platform/agentbrain/internal/nats"
)

const consumerName = "turn-ledger"

// Store persists ledger entries.
type Store interface {
	Insert(ctx context.Context, e *Entry) error
}

// Consumer listens on the turn event subject and persists each event.
type Consumer struct {
	store       Store
	consumerMgr *inats.ConsumerManager
}

// NewConsumer creates a new turn ledger Consumer.
func NewConsumer(store Store, consumerMgr *inats.ConsumerManager) *Consumer {
	return &Consumer{
		store:       store,
		consumerMgr: consumerMgr,
	}
}

// Start begins the consume loop. Blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	consumer, err := c.consumerMgr.EnsureConsumer(ctx, inats.StreamEvents, consumerName, inats.SubjectTurnEvent)
	if err != nil {
		return err
	}

	slog.Info("ledger consumer started", "consumer", consumerName)

	for {
		msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(inats.FetchTimeout))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("ledger consumer: fetching events", "error", err)
			continue
		}

		for msg := range msgs.Messages() {
			c.handleEvent(ctx, msg)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) handleEvent(ctx context.Context, msg jetstream.Msg) {
	var event inats.TurnEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		slog.Error("ledger consumer: unmarshaling event", "error", err)
		metrics.LedgerEventsTotal.WithLabelValues("malformed").Inc()
		// Redelivery cannot fix a payload that does not decode.
		_ = msg.Term()
		return
	}

	if err := c.store.Insert(ctx, entryFromEvent(event)); err != nil {
		slog.Error("ledger consumer: persisting entry", "error", err, "event_id", event.ID)
		metrics.LedgerEventsTotal.WithLabelValues("failed").Inc()
		_ = msg.Nak()
		return
	}

	_ = msg.Ack()
	metrics.LedgerEventsTotal.WithLabelValues("persisted").Inc()

	slog.Debug("ledger consumer: persisted event",
		"event_id", event.ID,
		"user_id", event.UserID,
		"cost_usd", event.Usage.CostUSD,
	)
}
