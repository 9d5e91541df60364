package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"restaurant-api/models"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher enqueues email jobs onto the durable notification queue.
type Publisher struct {
	conn   *Connection
	logger *zap.Logger
}

func NewPublisher(conn *Connection, logger *zap.Logger) *Publisher {
	return &Publisher{conn: conn, logger: logger}
}

// Enqueue publishes an email job as a persistent message so it survives a
// broker restart. Callers must only enqueue after the database write that
// triggered the notification has committed.
func (p *Publisher) Enqueue(ctx context.Context, job models.EmailJob) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal email job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		ctx,
		"",                 // default exchange
		p.conn.QueueName(), // routing key
		false,              // mandatory
		false,              // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.logger.Error("failed to publish email job",
			zap.String("queue", p.conn.QueueName()),
			zap.String("to", job.To),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish email job: %w", err)
	}

	p.logger.Debug("email job enqueued",
		zap.String("queue", p.conn.QueueName()),
		zap.String("subject", job.Subject),
	)
	return nil
}
