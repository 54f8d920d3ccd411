package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Domain events go to ExchangeName with their event type as routing key,
// e.g. "reservation.created" or "order.completed". Deliveries a consumer
// rejects without requeue end up on DeadLetterExchange.
const (
	ExchangeName       = "restaurant"
	ExchangeKind       = "topic"
	DeadLetterExchange = "restaurant.dead"

	ActivityQueue    = "restaurant-service.activity"
	activityPrefetch = 20
)

// ActivityBindings route every reservation and order event to the feed.
var ActivityBindings = []string{"reservation.*", "order.*"}

func deadLetterQueue(queue string) string { return queue + ".dead" }

func declareExchanges(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, ExchangeKind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeName, err)
	}
	if err := ch.ExchangeDeclare(DeadLetterExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", DeadLetterExchange, err)
	}
	return nil
}

// queueArgs sends rejected deliveries of a work queue to the dead-letter
// exchange.
func queueArgs() amqp.Table {
	return amqp.Table{"x-dead-letter-exchange": DeadLetterExchange}
}

// declareQueue declares queue with its bindings and a parking queue for the
// deliveries it dead-letters.
func declareQueue(ch *amqp.Channel, queue string, bindings []string) error {
	dead := deadLetterQueue(queue)
	if _, err := ch.QueueDeclare(dead, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", dead, err)
	}
	if err := ch.QueueBind(dead, "", DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", dead, err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, queueArgs()); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	for _, key := range bindings {
		if err := ch.QueueBind(queue, key, ExchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", queue, key, err)
		}
	}
	return nil
}

// open dials the broker and prepares a channel with the exchanges declared.
func open(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := declareExchanges(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

func closeAll(conn *amqp.Connection, ch *amqp.Channel) {
	if ch != nil {
		ch.Close()
	}
	if conn != nil {
		conn.Close()
	}
}
