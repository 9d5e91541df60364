package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"restaurant-api/models"
	"restaurant-api/sender"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer is the single long-lived worker draining the notification queue.
// It acknowledges a message only after the send succeeded; a message whose
// send fails is rejected without requeue, trading guaranteed delivery for
// availability (a poison message cannot wedge the queue).
type Consumer struct {
	conn        *Connection
	emailSender sender.EmailSender
	logger      *zap.Logger
	prefetch    int
}

func NewConsumer(conn *Connection, emailSender sender.EmailSender, logger *zap.Logger) *Consumer {
	return &Consumer{
		conn:        conn,
		emailSender: emailSender,
		logger:      logger,
		prefetch:    1,
	}
}

// Start consumes until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.conn.IsClosed() {
		if err := c.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	if err := c.conn.Channel().Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.conn.Channel().Consume(
		c.conn.QueueName(), // queue
		"email-consumer",   // consumer tag
		false,              // auto-ack (we ack manually)
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("notification consumer started", zap.String("queue", c.conn.QueueName()))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("notification consumer stopped")
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				c.logger.Error("message channel closed, reconnecting")
				if err := c.conn.Reconnect(); err != nil {
					return fmt.Errorf("failed to reconnect after channel closed: %w", err)
				}
				return c.Start(ctx)
			}
			c.handleDelivery(ctx, d)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp091.Delivery) {
	var job models.EmailJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		c.logger.Error("unparseable email job, dropping", zap.Error(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.logger.Error("failed to nack message", zap.Error(nackErr))
		}
		return
	}

	if _, err := c.emailSender.SendEmail(ctx, job.To, job.Subject, job.HTML); err != nil {
		// The triggering request completed long ago; nothing to surface.
		// Drop rather than requeue so a permanently failing send cannot loop.
		c.logger.Error("email send failed, dropping message",
			zap.String("to", job.To),
			zap.String("subject", job.Subject),
			zap.Error(err),
		)
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.logger.Error("failed to nack message", zap.Error(nackErr))
		}
		return
	}

	if err := d.Ack(false); err != nil {
		// Send succeeded but ack failed: the broker will redeliver and the
		// email goes out twice. At-least-once, tolerated.
		c.logger.Error("failed to ack message", zap.Error(err))
	}
}
