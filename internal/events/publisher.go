package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hushimx/hostservice-cart/internal/checkout"
	"github.com/hushimx/hostservice-cart/internal/contracts"
)

// Publisher emits enveloped CartCheckedOut events to the topic exchange.
// The partition key is the cart's storage key, so all checkouts of one
// (location, vendor) pair share a sequence stream.
type Publisher struct {
	ch       *amqp.Channel
	seq      Sequencer
	producer string
}

func NewCartEventsPublisher(conn *amqp.Connection, seq Sequencer) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return &Publisher{
		ch:       ch,
		seq:      seq,
		producer: contracts.CartServiceProducer,
	}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishCartCheckedOut(ctx context.Context, o *checkout.Order) error {
	partitionKey := o.StorageKey()

	seq, err := p.seq.NextSequence(ctx, partitionKey)
	if err != nil {
		return fmt.Errorf("next sequence for %s: %w", partitionKey, err)
	}

	env := contracts.BuildCartCheckedOutEvent(o, contracts.EnvelopeOptions{
		PartitionKey: partitionKey,
		Sequence:     seq,
		Producer:     p.producer,
	})

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal CartCheckedOut: %w", err)
	}

	return p.publishJSON(ctx, CartCheckedOutRoutingKey, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
