// Package memory хранилище в памяти процесса. Используется при STORAGE=memory и в тестах.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/model"
)

// DB общее состояние всех хранилищ.
// txMu сериализует транзакции, mu защищает данные.
type DB struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	reservations map[int64]model.Reservation
	users        map[int64]model.User
	notices      map[int64]model.Notice

	nextReservationID int64
	nextUserID        int64
	nextNoticeID      int64

	now func() time.Time
}

func New() *DB {
	return &DB{
		reservations: make(map[int64]model.Reservation),
		users:        make(map[int64]model.User),
		notices:      make(map[int64]model.Notice),
		now:          time.Now,
	}
}

// SetClock подменяет источник времени для created_at/updated_at
func (db *DB) SetClock(now func() time.Time) {
	db.now = now
}

func (db *DB) Reservations() *ReservationStore {
	return &ReservationStore{db: db}
}

func (db *DB) Users() *UserStore {
	return &UserStore{db: db}
}

func (db *DB) Notices() *NoticeStore {
	return &NoticeStore{db: db}
}

func (db *DB) Stats() *StatsStore {
	return &StatsStore{db: db}
}

type StatsStore struct {
	db *DB
}

// Ping хранилище в памяти всегда доступно
func (s *StatsStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *StatsStore) Dashboard(ctx context.Context, dayStart, dayEnd time.Time) (*model.DashboardStats, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	stats := &model.DashboardStats{
		ByStatus:   make(map[model.Status]int64),
		ByCategory: make(map[model.Category]int64),
	}

	for _, u := range s.db.users {
		stats.TotalUsers++
		if u.IsActive {
			stats.ActiveUsers++
		}
	}

	for _, r := range s.db.reservations {
		stats.TotalReservations++
		stats.ByStatus[r.Status]++
		stats.ByCategory[r.Category]++
		if !r.StartTime.Before(dayStart) && r.StartTime.Before(dayEnd) {
			stats.TodayReservations++
		}
	}

	for _, n := range s.db.notices {
		if n.IsPublished {
			stats.PublishedNotices++
		}
	}

	return stats, nil
}

func paginate[T any](items []T, page, perPage int) []T {
	offset := (page - 1) * perPage
	if offset >= len(items) {
		return nil
	}
	end := offset + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
