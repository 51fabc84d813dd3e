package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// NewClient connects to RabbitMQ, opens a channel and declares the durable
// event queue.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Queue == "" {
		return nil, errors.New("rabbitmq queue name is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareQueue(ch, cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", cfg.Queue, err)
	}

	log.Printf("RabbitMQ client connected and %s declared.", cfg.Queue)

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
	}, nil
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PublishJSON marshals payload and publishes it as a persistent message on the
// client's queue. eventType is carried in the message Type property so
// consumers can decode without inspecting the body.
func (c *Client) PublishJSON(ctx context.Context, eventType string, payload interface{}) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Type:         eventType,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}

	// Channel.Publish takes no context.
	done := make(chan error, 1)
	go func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		done <- c.channel.Publish("", c.queue, false, false, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to publish %s event: %w", eventType, err)
		}
	case <-ctx.Done():
		return fmt.Errorf("publishing %s event: %w", eventType, ctx.Err())
	}

	log.Printf(" [x] Sent %s event: %s", eventType, body)
	return nil
}

// Handler processes one delivery. A nil error acknowledges the message; an
// error rejects it without requeueing.
type Handler func(msg amqp.Delivery) error

// Consume registers handler on the client's queue and processes deliveries in
// a goroutine until ctx is cancelled or the channel closes.
func (c *Client) Consume(ctx context.Context, consumerTag string, handler Handler) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available for consumption")
	}

	c.mu.Lock()
	msgs, err := c.channel.Consume(
		c.queue,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] Waiting for events on %s", c.queue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.mu.Lock()
				if err := c.channel.Cancel(consumerTag, false); err != nil {
					log.Printf("Error cancelling consumer %s: %v", consumerTag, err)
				}
				c.mu.Unlock()
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if err := handler(msg); err != nil {
					log.Printf("Error processing message %d: %v", msg.DeliveryTag, err)
					if nackErr := msg.Nack(false, false); nackErr != nil {
						log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
					}
					continue
				}
				if ackErr := msg.Ack(false); ackErr != nil {
					log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
				}
			}
		}
	}()

	return nil
}
