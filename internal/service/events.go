package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/allelectronic/repair-service/internal/queue"
)

// EventPublisher publishes domain events to RabbitMQ. Publishing is best
// effort: errors are logged and returned so callers can ignore them without
// interrupting the request flow. A nil *EventPublisher is a valid no-op.
type EventPublisher struct {
	url string
}

func NewEventPublisher(url string) *EventPublisher {
	return &EventPublisher{url: url}
}

// Publish sends one event to the repair.events queue. Messages are marked
// persistent so they survive broker restarts.
func (p *EventPublisher) Publish(ctx context.Context, ev q.RequestEvent) error {
	if p == nil {
		return nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("events: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("events: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.EventsQueue, true, false, false, false, nil); err != nil {
		log.Printf("events: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("events: marshal failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.EventsQueue, false, false, pub); err != nil {
		log.Printf("events: publish failed: %v", err)
		return err
	}
	return nil
}
