// Package notify publishes cluster lifecycle notifications to the platform change feed. The feed is
// a RabbitMQ topic exchange and notifications are routed by their kind.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Kind string

const (
	ClusterCreated  Kind = "cluster.created"
	ClusterSnapshot Kind = "cluster.snapshot"
	ClusterDeleted  Kind = "cluster.deleted"
)

type Notification struct {
	Kind        Kind      `json:"kind"`
	TeamID      uuid.UUID `json:"teamId"`
	ClusterID   uuid.UUID `json:"clusterId"`
	ClusterName string    `json:"clusterName"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewPublisher(logger *slog.Logger, channel channel, exchange string) *Publisher {
	return &Publisher{
		logger:   logger,
		channel:  channel,
		exchange: exchange,
	}
}

type Publisher struct {
	logger   *slog.Logger
	mu       sync.Mutex
	channel  channel
	exchange string
}

// Publish publishes n to the exchange using its kind as routing key. A Publisher without a channel
// discards notifications.
func (p *Publisher) Publish(ctx context.Context, n Notification) error {
	if p == nil || p.channel == nil {
		return nil
	}

	if n.OccurredAt.IsZero() {
		n.OccurredAt = time.Now()
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, string(n.Kind), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    n.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %q notification for cluster %q: %v", n.Kind, n.ClusterID, err)
	}

	p.logger.DebugContext(ctx, "Published notification", "kind", n.Kind, "clusterId", n.ClusterID)
	return nil
}

type Notifier interface {
	Publish(ctx context.Context, n Notification) error
}

// Notifiers publishes to every notifier. A failing notifier doesn't keep the others from
// receiving the notification.
type Notifiers []Notifier

func (ns Notifiers) Publish(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range ns {
		if err := notifier.Publish(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dial connects to RabbitMQ and declares the durable topic exchange notifications are published to.
func Dial(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %v", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open RabbitMQ channel: %v", err)
	}

	err = ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %q: %v", exchange, err)
	}

	return conn, ch, nil
}
