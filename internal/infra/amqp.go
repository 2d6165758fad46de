// README: AMQP connection setup for the notification exchange.
package infra

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NewAMQPChannel dials the broker and declares the topic exchange used for
// fire-and-forget domain events.
func NewAMQPChannel(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}
