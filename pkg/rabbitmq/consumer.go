package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewActivityConsumer subscribes the activity feed queue to every
// reservation and order event.
func NewActivityConsumer(url string) (*Consumer, error) {
	return NewConsumer(url, ActivityQueue, ActivityBindings, activityPrefetch)
}

// NewConsumer declares queue, binds it to the restaurant exchange under
// bindings and limits unacknowledged deliveries to prefetch.
func NewConsumer(url, queue string, bindings []string, prefetch int) (*Consumer, error) {
	conn, ch, err := open(url)
	if err != nil {
		return nil, err
	}
	if err := declareQueue(ch, queue, bindings); err != nil {
		closeAll(conn, ch)
		return nil, err
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		closeAll(conn, ch)
		return nil, fmt.Errorf("rabbitmq qos: %w", err)
	}
	return &Consumer{conn: conn, channel: ch, queue: queue}, nil
}

func (c *Consumer) Consume() (<-chan amqp.Delivery, error) {
	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // manual ack after the entry is stored
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq consume %s: %w", c.queue, err)
	}
	return msgs, nil
}

func (c *Consumer) Close() {
	closeAll(c.conn, c.channel)
}
