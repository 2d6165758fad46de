// README: Fire-and-forget domain event publishing over AMQP.
package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys for the events this core emits.
const (
	KeyCleanerAssigned  = "cleaner.assigned"
	KeyBookingCompleted = "booking.completed"
)

// AssignmentEvent is the payload for cleaner.assigned and booking.completed.
type AssignmentEvent struct {
	BookingID string    `json:"booking_id"`
	CleanerID string    `json:"cleaner_id"`
	At        time.Time `json:"at"`
}

// Publisher delivers events to the notification collaborator. Delivery
// failure never rolls back the operation that produced the event.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// AMQPPublisher publishes to a topic exchange.
type AMQPPublisher struct {
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(ch *amqp.Channel, exchange string) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, exchange: exchange}
}

func (p *AMQPPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        b,
	})
}
