// Package mailq hands bulk email work to the external mail worker over
// RabbitMQ. The worker consumes these messages, sends the certificate
// emails, and writes its progress back to the email_batches row; this
// service never blocks on the worker.
package mailq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BatchMessage is the broker payload asking the mail worker to email a set
// of certificates. A retry of a single failed delivery reuses the same
// message shape with IsRetry set and exactly one certificate ID.
type BatchMessage struct {
	BatchID        string   `json:"batchId"`
	CertificateIDs []string `json:"certificateIds"`
	IsRetry        bool     `json:"isRetry,omitempty"`
}

// Validate checks the message is complete enough to dispatch
func (m *BatchMessage) Validate() error {
	if m.BatchID == "" {
		return fmt.Errorf("batch id is required")
	}
	if len(m.CertificateIDs) == 0 {
		return fmt.Errorf("at least one certificate id is required")
	}
	return nil
}

// Publisher delivers batch messages to the mail worker
type Publisher interface {
	Publish(ctx context.Context, msg BatchMessage) error
	Close() error
}

// RabbitPublisher is the AMQP-backed Publisher
type RabbitPublisher struct {
	conn  *amqp.Connection
	queue string
}

// NewRabbitPublisher connects to the broker and declares the worker queue
func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	return &RabbitPublisher{conn: conn, queue: queue}, nil
}

// Publish sends one batch message to the mail worker queue
func (p *RabbitPublisher) Publish(ctx context.Context, msg BatchMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid batch message: %w", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal batch message: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    msg.BatchID,
		Body:         payload,
	}

	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish to queue %q: %w", p.queue, err)
	}

	return nil
}

// Close releases the broker connection
func (p *RabbitPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
