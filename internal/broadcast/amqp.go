package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jostincp/Encore-sub007/models"
	"github.com/jostincp/Encore-sub007/utils"
)

// AMQPBridge republishes venue events to a topic exchange so downstream
// consumers (analytics, reporting) can subscribe without touching the
// engine. Routing key is venue.<venueId>.<eventType>.
type AMQPBridge struct {
	url      string
	exchange string
	breaker  *utils.CircuitBreaker

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPBridge(url, exchange string) *AMQPBridge {
	return &AMQPBridge{
		url:      url,
		exchange: exchange,
		breaker:  utils.NewCircuitBreaker("amqp-bridge"),
	}
}

func (b *AMQPBridge) Name() string { return "amqp" }

func (b *AMQPBridge) Deliver(ctx context.Context, event models.VenueEvent) error {
	return b.breaker.Do(ctx, func(ctx context.Context) error {
		return b.publish(ctx, event)
	})
}

func (b *AMQPBridge) publish(ctx context.Context, event models.VenueEvent) error {
	ch, err := b.channel()
	if err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	routingKey := fmt.Sprintf("venue.%s.%s", event.VenueID, event.Type)

	err = ch.PublishWithContext(ctx,
		b.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		// Broker connection may have died; drop it so the next delivery redials.
		b.reset()
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (b *AMQPBridge) channel() (*amqp.Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ch != nil {
		return b.ch, nil
	}

	conn, err := amqp.Dial(b.url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		b.exchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare: %w", err)
	}

	b.conn = conn
	b.ch = ch
	return ch, nil
}

func (b *AMQPBridge) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ch != nil {
		_ = b.ch.Close()
		b.ch = nil
	}
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
}

// Close shuts the broker connection down.
func (b *AMQPBridge) Close() {
	b.reset()
}
