package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends domain events in confirm mode: Publish returns only once
// the broker has taken responsibility for the message.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	conn, ch, err := open(url)
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		closeAll(conn, ch)
		return nil, fmt.Errorf("rabbitmq confirm mode: %w", err)
	}
	return &Publisher{conn: conn, channel: ch}, nil
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	msg, err := publishing(routingKey, payload, time.Now())
	if err != nil {
		return err
	}

	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(ctx, ExchangeName, routingKey, false, false, msg)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", routingKey, err)
	}
	if !acked {
		return fmt.Errorf("broker rejected %s (message %s)", routingKey, msg.MessageId)
	}
	return nil
}

// publishing encodes payload as a persistent JSON message. Payloads that
// carry their own id (domain events do) lend it to MessageId so consumers
// can spot redeliveries.
func publishing(routingKey string, payload any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         routingKey,
		Timestamp:    now,
		Body:         body,
	}
	if identified, ok := payload.(interface{ MessageID() string }); ok {
		msg.MessageId = identified.MessageID()
	}
	return msg, nil
}

func (p *Publisher) Close() {
	closeAll(p.conn, p.channel)
}
