package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"catalogservice/internal/audit"
	"catalogservice/internal/book"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	exchangeName = "catalog.events"
	exchangeType = "topic"

	EventTypeCatalogCreated = "catalog.created"
	EventTypeCatalogUpdated = "catalog.updated"
	EventTypeCatalogDeleted = "catalog.deleted"

	eventVersion = "1.0.0"

	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 5 * time.Second
	confirmTimeout = 5 * time.Second
)

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	Close() error
}

// Publisher sends catalog domain events to a RabbitMQ topic exchange with
// publisher confirms. It implements book.EventPublisher.
type Publisher struct {
	conn     *amqp.Connection
	channel  channel
	confirms chan amqp.Confirmation
	log      *zap.Logger
	backoff  time.Duration
}

var _ book.EventPublisher = (*Publisher)(nil)

// Event is the JSON envelope published for every catalog change.
type Event struct {
	EventID      string     `json:"event_id"`
	EventType    string     `json:"event_type"`
	EventVersion string     `json:"event_version"`
	Timestamp    string     `json:"timestamp"`
	Actor        string     `json:"actor,omitempty"`
	ISBN         string     `json:"isbn"`
	Book         *book.Book `json:"book,omitempty"`
}

func NewPublisher(url string, log *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchangeName,
		exchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	log.Info("connected to RabbitMQ", zap.String("exchange", exchangeName))

	p := newPublisher(ch, log)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, log *zap.Logger) *Publisher {
	return &Publisher{
		channel:  ch,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
		log:      log,
		backoff:  initialBackoff,
	}
}

func (p *Publisher) newEvent(ctx context.Context, eventType, isbn string) Event {
	return Event{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: eventVersion,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Actor:        audit.Principal(ctx),
		ISBN:         isbn,
	}
}

func (p *Publisher) PublishBookCreated(ctx context.Context, b book.Book) error {
	event := p.newEvent(ctx, EventTypeCatalogCreated, b.ISBN)
	event.Book = &b
	return p.publishWithRetry(ctx, event)
}

func (p *Publisher) PublishBookUpdated(ctx context.Context, b book.Book) error {
	event := p.newEvent(ctx, EventTypeCatalogUpdated, b.ISBN)
	event.Book = &b
	return p.publishWithRetry(ctx, event)
}

func (p *Publisher) PublishBookDeleted(ctx context.Context, isbn string) error {
	return p.publishWithRetry(ctx, p.newEvent(ctx, EventTypeCatalogDeleted, isbn))
}

// publishWithRetry publishes event with exponential backoff, waiting for the
// broker confirm after each attempt.
func (p *Publisher) publishWithRetry(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	backoff := p.backoff
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff = min(backoff*2, maxBackoff)
			}
		}

		err := p.channel.PublishWithContext(ctx, exchangeName, event.EventType, false, false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    time.Now(),
				MessageId:    event.EventID,
				Body:         body,
				Headers: amqp.Table{
					"event_type":    event.EventType,
					"event_version": event.EventVersion,
				},
			},
		)
		if err != nil {
			lastErr = err
			p.log.Warn("failed to publish event, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}

		select {
		case confirm, ok := <-p.confirms:
			if !ok {
				return fmt.Errorf("publish %s: confirm channel closed", event.EventType)
			}
			if confirm.Ack {
				p.log.Debug("event published",
					zap.String("event_id", event.EventID),
					zap.String("event_type", event.EventType),
				)
				return nil
			}
			lastErr = fmt.Errorf("event not acknowledged")
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(confirmTimeout):
			lastErr = fmt.Errorf("confirmation timeout")
		}

		p.log.Warn("event publish not confirmed, retrying", zap.Int("attempt", attempt+1), zap.Error(lastErr))
	}

	return fmt.Errorf("failed to publish event after %d attempts: %w", maxRetries, lastErr)
}

// IsHealthy reports whether the broker connection is still open.
func (p *Publisher) IsHealthy() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Warn("failed to close channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return err
		}
	}
	return nil
}
