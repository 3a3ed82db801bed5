package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// ModerationEvent описывает одно действие модерации над набором пользователей.
type ModerationEvent struct {
	Action     string    `json:"action"`      // user.blocked, user.unblocked, user.deleted
	UserUIDs   []string  `json:"user_uids"`   // Затронутые пользователи
	ActorUID   string    `json:"actor_uid"`   // Кто выполнил действие
	OccurredAt time.Time `json:"occurred_at"` // Время действия
}

// Publisher публикует события модерации в канал RabbitMQ.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher создаёт Publisher поверх открытого канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Publish публикует событие модерации с ключом маршрутизации, равным действию.
func (p *Publisher) Publish(event ModerationEvent) error {
	const op = "events.Publish"
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		"moderation",
		event.Action,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
