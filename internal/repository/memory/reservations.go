package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/Freeeeeet/apartment_booking/internal/repository"
)

// ReservationStore реализация repository.ReservationStore
type ReservationStore struct {
	db   *DB
	inTx bool
}

var _ repository.ReservationStore = (*ReservationStore)(nil)

// WithTx транзакции выполняются строго по одной; при ошибке fn бронирования откатываются
func (s *ReservationStore) WithTx(ctx context.Context, operation string, fn func(ctx context.Context, repo repository.Reservations) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	s.db.mu.RLock()
	snapshot := maps.Clone(s.db.reservations)
	nextID := s.db.nextReservationID
	s.db.mu.RUnlock()

	if err := fn(ctx, &ReservationStore{db: s.db, inTx: true}); err != nil {
		s.db.mu.Lock()
		s.db.reservations = snapshot
		s.db.nextReservationID = nextID
		s.db.mu.Unlock()
		return err
	}

	return nil
}

func (s *ReservationStore) Create(ctx context.Context, r *model.Reservation) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if r.IsActive() && s.overlapsLocked(r.Interval(), 0) {
		return fmt.Errorf("create reservation: %w", repository.ErrOverlap)
	}

	s.db.nextReservationID++
	now := s.db.now()
	r.ID = s.db.nextReservationID
	r.CreatedAt = now
	r.UpdatedAt = now
	s.db.reservations[r.ID] = *r

	return nil
}

func (s *ReservationStore) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	r, ok := s.db.reservations[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *ReservationStore) GetByIDForUpdate(ctx context.Context, id int64) (*model.Reservation, error) {
	return s.GetByID(ctx, id)
}

func (s *ReservationStore) Update(ctx context.Context, r *model.Reservation) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.reservations[r.ID]; !ok {
		return fmt.Errorf("reservation not found")
	}

	if r.IsActive() && s.overlapsLocked(r.Interval(), r.ID) {
		return fmt.Errorf("update reservation: %w", repository.ErrOverlap)
	}

	r.UpdatedAt = s.db.now()
	s.db.reservations[r.ID] = *r

	return nil
}

func (s *ReservationStore) Delete(ctx context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.reservations[id]; !ok {
		return fmt.Errorf("reservation not found")
	}
	delete(s.db.reservations, id)

	return nil
}

func (s *ReservationStore) FindActiveOverlapping(ctx context.Context, interval model.Interval, excludeID *int64) ([]*model.Reservation, error) {
	return s.filter(func(r model.Reservation) bool {
		if excludeID != nil && r.ID == *excludeID {
			return false
		}
		return r.IsActive() && r.Interval().Overlaps(interval)
	}), nil
}

func (s *ReservationStore) FindActiveByOwner(ctx context.Context, key model.OwnerKey) ([]*model.Reservation, error) {
	s.db.mu.RLock()
	owners := map[int64]bool{key.UserID: true}
	if key.Apartment != "" {
		owners = make(map[int64]bool)
		for _, u := range s.db.users {
			if u.Apartment() == key.Apartment {
				owners[u.ID] = true
			}
		}
	}
	s.db.mu.RUnlock()

	return s.filter(func(r model.Reservation) bool {
		return r.IsActive() && owners[r.UserID]
	}), nil
}

// LockCategory транзакции уже сериализованы в WithTx
func (s *ReservationStore) LockCategory(ctx context.Context, category model.Category) error {
	return nil
}

func (s *ReservationStore) LockOwner(ctx context.Context, key model.OwnerKey) error {
	return nil
}

func (s *ReservationStore) List(ctx context.Context, filter model.ReservationFilter) ([]*model.Reservation, int64, error) {
	filter.Normalize()

	items := s.filter(func(r model.Reservation) bool {
		switch {
		case filter.Status != nil && r.Status != *filter.Status:
			return false
		case filter.Category != nil && r.Category != *filter.Category:
			return false
		case filter.UserID != nil && r.UserID != *filter.UserID:
			return false
		case filter.From != nil && r.StartTime.Before(*filter.From):
			return false
		case filter.To != nil && !r.StartTime.Before(*filter.To):
			return false
		}
		return true
	})

	// Новые сверху, как в SQL-реализации
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})

	return paginate(items, filter.Page, filter.PerPage), int64(len(items)), nil
}

func (s *ReservationStore) ListActiveBetween(ctx context.Context, from, to time.Time) ([]*model.Reservation, error) {
	return s.filter(func(r model.Reservation) bool {
		return r.IsActive() && r.StartTime.Before(to) && r.EndTime.After(from)
	}), nil
}

func (s *ReservationStore) ListApprovedEndedBefore(ctx context.Context, t time.Time) ([]*model.Reservation, error) {
	return s.filter(func(r model.Reservation) bool {
		return r.Status == model.StatusApproved && !r.EndTime.After(t)
	}), nil
}

// filter копии подходящих бронирований, отсортированные по началу
func (s *ReservationStore) filter(match func(r model.Reservation) bool) []*model.Reservation {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var out []*model.Reservation
	for _, r := range s.db.reservations {
		if match(r) {
			r := r
			out = append(out, &r)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})

	return out
}

// overlapsLocked аналог ограничения reservations_no_overlap
func (s *ReservationStore) overlapsLocked(interval model.Interval, selfID int64) bool {
	for id, r := range s.db.reservations {
		if id == selfID {
			continue
		}
		if r.IsActive() && r.Interval().Overlaps(interval) {
			return true
		}
	}
	return false
}
