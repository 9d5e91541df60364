package queue

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Connection wraps a RabbitMQ connection and channel with reconnection
// support. Constructed once at startup and injected into publisher and
// consumer.
type Connection struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	url     string
	queue   string
	logger  *zap.Logger
}

// NewConnection dials RabbitMQ and declares the durable notification queue.
func NewConnection(url, queueName string, logger *zap.Logger) (*Connection, error) {
	c := &Connection{
		url:    url,
		queue:  queueName,
		logger: logger,
	}
	if err := c.connect(); err != nil {
		return nil, fmt.Errorf("failed to establish initial connection: %w", err)
	}
	return c, nil
}

func (c *Connection) connect() error {
	const maxRetries = 5
	var err error

	for i := 0; i < maxRetries; i++ {
		c.conn, err = amqp091.Dial(c.url)
		if err == nil {
			c.channel, err = c.conn.Channel()
			if err == nil {
				if declareErr := c.declareQueue(); declareErr == nil {
					return nil
				} else {
					err = declareErr
					c.close()
				}
			} else {
				c.conn.Close()
			}
		}

		if i < maxRetries-1 {
			wait := time.Duration(i+1) * 2 * time.Second
			c.logger.Warn("rabbitmq connection failed, retrying",
				zap.Duration("wait", wait),
				zap.Error(err),
			)
			time.Sleep(wait)
		}
	}

	return fmt.Errorf("failed to connect to rabbitmq after %d attempts: %w", maxRetries, err)
}

func (c *Connection) declareQueue() error {
	_, err := c.channel.QueueDeclare(
		c.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", c.queue, err)
	}
	return nil
}

// Channel returns the current channel.
func (c *Connection) Channel() *amqp091.Channel {
	return c.channel
}

// QueueName returns the declared queue name.
func (c *Connection) QueueName() string {
	return c.queue
}

// IsClosed checks if the connection is closed.
func (c *Connection) IsClosed() bool {
	return c.conn == nil || c.conn.IsClosed()
}

// Reconnect re-dials and re-declares the queue.
func (c *Connection) Reconnect() error {
	c.close()
	return c.connect()
}

// Close closes the channel and connection.
func (c *Connection) Close() error {
	return c.close()
}

func (c *Connection) close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
