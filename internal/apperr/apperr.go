// Package apperr описывает ошибки, которые видит клиент API.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindConflict        Kind = "conflict"
	KindLimitExceeded   Kind = "limit_exceeded"
	KindStateTransition Kind = "state_transition"
	KindDeadline        Kind = "deadline"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindUnauthorized    Kind = "unauthorized"
	KindDuplicate       Kind = "duplicate"
	KindRateLimited     Kind = "rate_limited"
	KindPersistence     Kind = "persistence"
)

// Error ошибка с кодом и сообщением для пользователя
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is позволяет сравнивать через errors.Is по Kind и Code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	return t.Kind == e.Kind
}

// WithDetails добавляет детали к ошибке
func (e *Error) WithDetails(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// HTTPStatus статус ответа для вида ошибки
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict, KindLimitExceeded, KindStateTransition, KindDuplicate:
		return http.StatusConflict
	case KindDeadline:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, "time_conflict", message)
}

func LimitExceeded(message string) *Error {
	return New(KindLimitExceeded, "max_reservations_exceeded", message)
}

func StateTransition(message string, err error) *Error {
	e := New(KindStateTransition, "invalid_transition", message)
	e.Err = err
	return e
}

func Deadline(message string) *Error {
	return New(KindDeadline, "modification_deadline", message)
}

func NotFound(resource string, id int64) *Error {
	return New(KindNotFound, resource+"_not_found", fmt.Sprintf("%s %d not found", resource, id)).
		WithDetails("id", id)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, "forbidden", message)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, "unauthorized", message)
}

func Duplicate(message string) *Error {
	return New(KindDuplicate, "duplicate_value", message)
}

func RateLimited() *Error {
	return New(KindRateLimited, "rate_limit_exceeded", "too many requests, try again later")
}

// Persistence оборачивает ошибку хранилища, текст драйвера клиенту не отдаётся
func Persistence(err error) *Error {
	return &Error{Kind: KindPersistence, Code: "database_error", Message: "internal storage error", Err: err}
}

// From достаёт *Error из цепочки, остальные ошибки считаются ошибками хранилища
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Persistence(err)
}

// IsKind проверяет вид ошибки в цепочке
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
