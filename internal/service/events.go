package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/google/uuid"
)

const (
	EventReservationCreated       = "reservation.created"
	EventReservationStatusChanged = "reservation.status_changed"
	EventOrderSubmitted           = "order.submitted"
	EventOrderCompleted           = "order.completed"
	EventOrderCancelled           = "order.cancelled"
)

// EventPublisher sends a JSON payload to the broker under routingKey.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type eventEmitter struct {
	publisher EventPublisher
	log       *slog.Logger
}

// emit publishes after the change is committed. A broker failure is logged
// and never fails the request.
func (e eventEmitter) emit(ctx context.Context, eventType, subject string, data any) {
	if e.publisher == nil {
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		e.log.Error("encode event", "type", eventType, "error", err)
		return
	}

	event := models.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}
	if err := e.publisher.Publish(ctx, eventType, event); err != nil {
		e.log.Warn("publish event", "type", eventType, "subject", subject, "error", err)
	}
}

func reservationSubject(id uint) string { return fmt.Sprintf("reservation/%d", id) }

func orderSubject(id uint) string { return fmt.Sprintf("order/%d", id) }

// storageErr tags an unexpected persistence error so handlers render it as an
// opaque failure while the cause stays available for logging.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
