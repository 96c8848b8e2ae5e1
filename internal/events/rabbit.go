package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ritvika/paintshop/internal/logging"
	"github.com/sethvargo/go-retry"
)

// Rabbit is a thin wrapper over a single connection and channel bound to a
// durable topic exchange.
type Rabbit struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   logging.Logger
}

func NewRabbit(url, exchange string, logger logging.Logger) (*Rabbit, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Rabbit{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

func (r *Rabbit) Close() {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}

// PublishJSON marshals v and publishes it, retrying briefly on broker
// errors. The channel is not safe for concurrent publish, so callers
// serialize through the app's single publisher goroutine-free path.
func (r *Rabbit) PublishJSON(ctx context.Context, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	backoff := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.ch.PublishWithContext(ctx, r.exchange, routingKey, false, false, amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Handler processes one delivery. A returned error leaves the message
// logged and dropped; auto-ack keeps the consumer simple.
type Handler func(ctx context.Context, routingKey string, body []byte) error

// ConsumeTopic declares a durable queue, binds it to the given routing keys
// and dispatches deliveries to handler until ctx is cancelled.
func (r *Rabbit) ConsumeTopic(ctx context.Context, queueName string, bindings []string, handler Handler) error {
	q, err := r.ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return err
	}
	for _, rk := range bindings {
		if err := r.ch.QueueBind(q.Name, rk, r.exchange, false, nil); err != nil {
			return err
		}
	}
	msgs, err := r.ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				r.logger.Info(ctx, "consumer channel closed", "queue", queueName)
				return nil
			}
			if err := handler(ctx, d.RoutingKey, d.Body); err != nil {
				r.logger.Error(ctx, "event handler error", "routing_key", d.RoutingKey, "error", err)
			}
		}
	}
}
