package messagequeue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQConfig contains options for connecting to RabbitMQ.
type RabbitMQConfig struct {
	URL      string
	Exchange string
	// RetryDelay is how long a consumer holds a message that failed with ErrRetry before requeueing it.
	RetryDelay time.Duration
}

const defaultRetryDelay = 5 * time.Second

// RabbitMQPublisher publishes persistent JSON messages to a durable topic exchange.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewRabbitMQPublisher dials RabbitMQ and declares the exchange.
func NewRabbitMQPublisher(cfg RabbitMQConfig) (*RabbitMQPublisher, error) {
	conn, ch, err := open(cfg)
	if err != nil {
		return nil, err
	}
	return &RabbitMQPublisher{conn: conn, ch: ch, exchange: cfg.Exchange}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	return closeAll(p.ch, p.conn)
}

// RabbitMQConsumer reads from a durable queue bound to the exchange with the given routing keys.
type RabbitMQConsumer struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	queue      string
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewRabbitMQConsumer declares the queue and its bindings.
func NewRabbitMQConsumer(cfg RabbitMQConfig, queue string, keys []string, logger *zap.Logger) (*RabbitMQConsumer, error) {
	conn, ch, err := open(cfg)
	if err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = closeAll(ch, conn)
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	for _, key := range keys {
		if err := ch.QueueBind(q.Name, key, cfg.Exchange, false, nil); err != nil {
			_ = closeAll(ch, conn)
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	if err := ch.Qos(10, 0, false); err != nil {
		_ = closeAll(ch, conn)
		return nil, fmt.Errorf("set qos: %w", err)
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	return &RabbitMQConsumer{conn: conn, ch: ch, queue: q.Name, retryDelay: retryDelay, logger: logger}, nil
}

func (c *RabbitMQConsumer) Consume(ctx context.Context, handler Handler) error {
	deliveries, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	c.logger.Info("Waiting for messages", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.settle(ctx, d, handler(ctx, d.RoutingKey, d.Body))
		}
	}
}

// settle acknowledges d, requeues it after retryDelay when err is marked with Retry, or rejects it.
func (c *RabbitMQConsumer) settle(ctx context.Context, d amqp.Delivery, err error) {
	if err == nil {
		_ = d.Ack(false)
		return
	}
	if !errors.Is(err, ErrRetry) {
		c.logger.Error("Message handler failed, message rejected",
			zap.String("routingKey", d.RoutingKey),
			zap.Error(err),
		)
		_ = d.Nack(false, false)
		return
	}

	c.logger.Warn("Message handler failed, message requeued",
		zap.String("routingKey", d.RoutingKey),
		zap.Bool("redelivered", d.Redelivered),
		zap.Duration("delay", c.retryDelay),
		zap.Error(err),
	)
	timer := time.NewTimer(c.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	_ = d.Nack(false, true)
}

func (c *RabbitMQConsumer) Close() error {
	return closeAll(c.ch, c.conn)
}

func open(cfg RabbitMQConfig) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = closeAll(ch, conn)
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}

func closeAll(ch *amqp.Channel, conn *amqp.Connection) error {
	var lastErr error
	if ch != nil {
		if err := ch.Close(); err != nil {
			lastErr = err
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
