package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Dosada05/league-buysell/models"
)

const DefaultExchange = "marketplace.activity"

type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	mu       sync.Mutex
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         b,
	})
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// RoutingKey is "activity.<kind>", e.g. "activity.matched".
func RoutingKey(kind models.ActivityKind) string {
	return "activity." + string(kind)
}

// JSONPublisher is the part of Publisher the sink needs.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Sink forwards activity lines to the topic exchange.
type Sink struct {
	pub JSONPublisher
}

func NewSink(pub JSONPublisher) *Sink {
	return &Sink{pub: pub}
}

func (s *Sink) Name() string { return "rabbitmq" }

func (s *Sink) Deliver(ctx context.Context, activity models.Activity) error {
	if err := s.pub.PublishJSON(ctx, RoutingKey(activity.Kind), activity); err != nil {
		return fmt.Errorf("publish %s: %w", activity.Kind, err)
	}
	return nil
}
