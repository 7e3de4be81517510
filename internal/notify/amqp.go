package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"hotelbooking/internal/config"
	"hotelbooking/internal/logging"
	"hotelbooking/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher hands notifications to the mail relay through a topic exchange.
type AMQPPublisher struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	ch         channel
	exchange   string
	routingKey string
	logger     *zerolog.Logger
}

// DialAMQP connects and declares the durable exchange.
func DialAMQP(cfg config.NotificationsConfig, logger *zerolog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare %s: %w", cfg.Exchange, err)
	}
	p := newAMQPPublisher(ch, cfg.Exchange, cfg.RoutingKey, logger)
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch channel, exchange, routingKey string, logger *zerolog.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logging.Component(logger, "amqp"),
	}
}

// Notify publishes n as a persistent JSON message. The routing key is
// the configured prefix plus the notification kind.
func (p *AMQPPublisher) Notify(ctx context.Context, n models.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	key := p.routingKey + "." + n.Kind
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	p.logger.Debug().Str("routing_key", key).Int64("booking_id", n.BookingID).Msg("Notification published")
	return nil
}

func (p *AMQPPublisher) Close() error {
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
