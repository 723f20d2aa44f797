package events

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
)

// Consumer reads events bound to a queue.
type Consumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewConsumer connects to url and binds queue to exchange for every routing
// key in keys. An empty queue name declares a server-named, exclusive,
// auto-deleted queue.
func NewConsumer(url, exchange, queue string, keys []string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	fail := func(format string, args ...any) (*Consumer, error) {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf(format, args...)
	}

	if err := ch.ExchangeDeclare(exchange, ExchangeKind, true, false, false, false, nil); err != nil {
		return fail("declare exchange: %w", err)
	}
	durable := queue != ""
	q, err := ch.QueueDeclare(queue, durable, !durable, !durable, false, nil)
	if err != nil {
		return fail("declare queue: %w", err)
	}
	for _, rk := range keys {
		if err := ch.QueueBind(q.Name, rk, exchange, false, nil); err != nil {
			return fail("bind %s: %w", rk, err)
		}
	}
	return &Consumer{conn: conn, ch: ch, queue: q.Name}, nil
}

// Delivery is a received event.
type Delivery struct {
	Key  string
	Body []byte
	// Context carries the publisher's trace context, if any.
	Context context.Context
	ack     func() error
}

// Ack acknowledges the delivery.
func (d Delivery) Ack() error {
	if d.ack == nil {
		return nil
	}
	return d.ack()
}

// Consume calls handle for each delivery until ctx is done or the channel
// closes. A handler error stops consumption and leaves the message
// unacknowledged.
func (c *Consumer) Consume(ctx context.Context, handle func(Delivery) error) error {
	deliveries, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			msgCtx := otel.GetTextMapPropagator().Extract(ctx, HeaderCarrier(d.Headers))
			err := handle(Delivery{
				Key:     d.RoutingKey,
				Body:    d.Body,
				Context: msgCtx,
				ack:     func() error { return d.Ack(false) },
			})
			if err != nil {
				return err
			}
		}
	}
}

// Close releases the channel and the connection.
func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
