package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/onhighmng/melhor-saude-backend/internal/models"
)

// AMQPNotifier publishes assignment notifications to a topic exchange,
// routed by provider id so each provider's inbox worker can bind its own
// queue.
type AMQPNotifier struct {
	conn     *amqp091.Connection
	exchange string
	log      zerolog.Logger
}

func NewAMQP(url, exchange string, logger zerolog.Logger) (*AMQPNotifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}

	return &AMQPNotifier{
		conn:     conn,
		exchange: exchange,
		log:      logger,
	}, nil
}

func (n *AMQPNotifier) NotifyAssignment(ctx context.Context, providerID string, msg models.AssignmentNotification) error {
	ch, err := n.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := "assignment.provider." + providerID
	err = ch.PublishWithContext(
		ctx, n.exchange, key, false, false,
		amqp091.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp091.Persistent,
			MessageId:     uuid.NewString(),
			CorrelationId: msg.CaseID,
			Timestamp:     time.Now(),
			Body:          body,
		},
	)
	if err == nil {
		n.log.Info().Str("key", key).Str("exchange", n.exchange).Msg("notification published")
	}
	return err
}

func (n *AMQPNotifier) Close() error {
	return n.conn.Close()
}
