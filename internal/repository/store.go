package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/model"
)

var (
	// ErrOverlap сработало ограничение reservations_no_overlap
	ErrOverlap = errors.New("reservation overlaps an active reservation")
	// ErrDuplicate нарушение уникальности
	ErrDuplicate = errors.New("duplicate value")
)

// Reservations операции над бронированиями. Методы *ForUpdate и Lock*
// имеют смысл только внутри WithTx.
type Reservations interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id int64) (*model.Reservation, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Reservation, error)
	Update(ctx context.Context, r *model.Reservation) error
	Delete(ctx context.Context, id int64) error

	// FindActiveOverlapping активные бронирования той же категории, пересекающие interval
	FindActiveOverlapping(ctx context.Context, interval model.Interval, excludeID *int64) ([]*model.Reservation, error)
	// FindActiveByOwner активные бронирования пользователя или квартиры
	FindActiveByOwner(ctx context.Context, key model.OwnerKey) ([]*model.Reservation, error)

	LockCategory(ctx context.Context, category model.Category) error
	LockOwner(ctx context.Context, key model.OwnerKey) error

	List(ctx context.Context, filter model.ReservationFilter) ([]*model.Reservation, int64, error)
	ListActiveBetween(ctx context.Context, from, to time.Time) ([]*model.Reservation, error)
	ListApprovedEndedBefore(ctx context.Context, t time.Time) ([]*model.Reservation, error)
}

// ReservationStore бронирования с поддержкой транзакций
type ReservationStore interface {
	Reservations
	// WithTx выполняет fn атомарно; ошибка fn откатывает все изменения
	WithTx(ctx context.Context, operation string, fn func(ctx context.Context, repo Reservations) error) error
}

type Users interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, page, perPage int) ([]*model.User, int64, error)
	SetActive(ctx context.Context, id int64, active bool) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

type Notices interface {
	Create(ctx context.Context, n *model.Notice) error
	GetByID(ctx context.Context, id int64) (*model.Notice, error)
	List(ctx context.Context, filter model.NoticeFilter) ([]*model.Notice, int64, error)
	Update(ctx context.Context, n *model.Notice) error
	Delete(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) error
}

type Statistics interface {
	Dashboard(ctx context.Context, dayStart, dayEnd time.Time) (*model.DashboardStats, error)
	Ping(ctx context.Context) error
}
