package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/datatypes"
)

const storeTimeout = 5 * time.Second

// Acknowledger is the part of amqp.Delivery the consumer settles messages with.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type ActivityConsumer struct {
	repo repository.ActivityRepository
	log  *slog.Logger
}

func NewActivityConsumer(repo repository.ActivityRepository, log *slog.Logger) *ActivityConsumer {
	return &ActivityConsumer{repo: repo, log: log.With("component", "activity-consumer")}
}

// Start listens for domain events and records each one in the activity feed.
func (ac *ActivityConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			ac.handleMessage(msg.Body, &msg)
		}
		ac.log.Info("delivery channel closed, stopping consumer")
	}()
}

func (ac *ActivityConsumer) handleMessage(body []byte, msg Acknowledger) {
	var event models.Event
	if err := json.Unmarshal(body, &event); err != nil || event.ID == "" || event.Type == "" {
		ac.log.Warn("dead-lettering malformed event", "error", err)
		msg.Nack(false, false)
		return
	}

	entry := &models.ActivityEntry{
		EventID:    event.ID,
		Type:       event.Type,
		Subject:    event.Subject,
		Payload:    datatypes.JSON(event.Data),
		OccurredAt: event.OccurredAt,
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	// Redelivered events overwrite their own entry.
	if err := ac.repo.Upsert(ctx, entry); err != nil {
		ac.log.Error("failed to store activity entry", "event_id", event.ID, "error", err)
		msg.Nack(false, true)
		return
	}

	ac.log.Debug("recorded activity", "event_id", event.ID, "type", event.Type)
	msg.Ack(false)
}
