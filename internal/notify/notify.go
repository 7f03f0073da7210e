// Package notify рассылает события жизненного цикла бронирований.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/model"
)

type EventType string

const (
	EventCreated   EventType = "created"
	EventUpdated   EventType = "updated"
	EventApproved  EventType = "approved"
	EventRejected  EventType = "rejected"
	EventCancelled EventType = "cancelled"
	EventCompleted EventType = "completed"
	EventDeleted   EventType = "deleted"
)

type Event struct {
	Type        EventType         `json:"type"`
	Reservation model.Reservation `json:"reservation"`
	ActorID     int64             `json:"actor_id"`
	At          time.Time         `json:"at"`
}

// RoutingKey ключ маршрутизации в обменнике
func (e Event) RoutingKey() string {
	return "reservation." + string(e.Type)
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Multi отправляет событие всем получателям и собирает ошибки
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop для тестов и отключённых уведомлений
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }
