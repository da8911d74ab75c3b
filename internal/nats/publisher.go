package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamPublisher is the slice of jetstream.JetStream the publisher needs.
type StreamPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher writes turn events to JetStream.
type Publisher struct {
	js StreamPublisher
}

func NewPublisher(js StreamPublisher) *Publisher {
	return &Publisher{js: js}
}

// PublishTurn publishes the summary of a finished pipeline run. The event ID
// doubles as the JetStream message ID so a retried publish is deduplicated
// by the server.
func (p *Publisher) PublishTurn(ctx context.Context, event TurnEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling turn event: %w", err)
	}

	msg := nats.NewMsg(SubjectTurnEvent)
	msg.Data = payload
	msg.Header.Set("Content-Type", "application/json")

	if _, err := p.js.PublishMsg(ctx, msg, jetstream.WithMsgID(event.ID.String())); err != nil {
		return fmt.Errorf("publishing to %s: %w", SubjectTurnEvent, err)
	}
	return nil
}
