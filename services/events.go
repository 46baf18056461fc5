package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Report lifecycle event types
const (
	EventReportCreated = "report.created"
	EventReportUpdated = "report.updated"
	EventReportDeleted = "report.deleted"
)

// ReportEvent is published after a report mutation. Consumers get enough
// context to notify or audit without reading the datastore.
type ReportEvent struct {
	Type           string    `json:"type"`
	ReportID       string    `json:"report_id"`
	ClientID       string    `json:"client_id"`
	EmployeeID     *string   `json:"employee_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Changes        []string  `json:"changes,omitempty"`
	Actor          string    `json:"actor"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// EventPublisher delivers report events
type EventPublisher interface {
	Publish(ctx context.Context, event ReportEvent) error
}

// NoopPublisher discards events
type NoopPublisher struct{}

// Publish does nothing
func (NoopPublisher) Publish(ctx context.Context, event ReportEvent) error { return nil }

// AMQPPublisher publishes events to a durable RabbitMQ queue. It dials per
// message; report mutations are infrequent.
type AMQPPublisher struct {
	url   string
	queue string
}

// NewAMQPPublisher creates a publisher for the given broker and queue
func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: queue}
}

// Publish sends one persistent JSON message through the default exchange
func (p *AMQPPublisher) Publish(ctx context.Context, event ReportEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		return fmt.Errorf("rabbitmq: queue declare failed: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt.UTC(),
		Type:         event.Type,
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}
	return nil
}

// publishQuietly never fails the caller; broker trouble is only logged
func publishQuietly(ctx context.Context, publisher EventPublisher, event ReportEvent) {
	if err := publisher.Publish(ctx, event); err != nil {
		log.Printf("Failed to publish %s for report %s: %v", event.Type, event.ReportID, err)
	}
}
