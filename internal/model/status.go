package model

import (
	"fmt"
	"strconv"
)

type Status string

const (
	StatusPending   Status = "pending"   // Ожидает решения администратора
	StatusApproved  Status = "approved"  // Одобрено
	StatusRejected  Status = "rejected"  // Отклонено администратором
	StatusCompleted Status = "completed" // Завершено
	StatusCancelled Status = "cancelled" // Отменено
)

// ActiveStatuses статусы, участвующие в проверке конфликтов
var ActiveStatuses = []Status{StatusPending, StatusApproved}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusApproved
}

// IsTerminal из терминальных статусов переходов нет
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusCancelled
}

// Event действие над бронированием
type Event string

const (
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventCancel   Event = "cancel"
	EventComplete Event = "complete"
)

// transitions единственная таблица переходов жизненного цикла
var transitions = map[Status]map[Event]Status{
	StatusPending: {
		EventApprove: StatusApproved,
		EventReject:  StatusRejected,
		EventCancel:  StatusCancelled,
	},
	StatusApproved: {
		EventCancel:   StatusCancelled,
		EventComplete: StatusCompleted,
	},
}

// TransitionError недопустимый переход
type TransitionError struct {
	From  Status
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s reservation in status %q", e.Event, e.From)
}

// NextStatus возвращает статус после события или *TransitionError
func NextStatus(from Status, event Event) (Status, error) {
	if to, ok := transitions[from][event]; ok {
		return to, nil
	}
	return from, &TransitionError{From: from, Event: event}
}

// CanTransition проверяет наличие перехода без его выполнения
func CanTransition(from Status, event Event) bool {
	_, err := NextStatus(from, event)
	return err == nil
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
