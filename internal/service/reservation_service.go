package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/apperr"
	"github.com/Freeeeeet/apartment_booking/internal/auth"
	"github.com/Freeeeeet/apartment_booking/internal/metrics"
	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/Freeeeeet/apartment_booking/internal/notify"
	"github.com/Freeeeeet/apartment_booking/internal/repository"
	"go.uber.org/zap"
)

// LimitKey по какому признаку считается лимит активных бронирований
type LimitKey string

const (
	LimitByUser      LimitKey = "user"
	LimitByApartment LimitKey = "apartment"
)

type ReservationOptions struct {
	Location *time.Location
	LimitKey LimitKey
}

type ReservationService struct {
	store    repository.ReservationStore
	users    repository.Users
	notifier notify.Notifier
	stats    metrics.Collector
	clock    Clock
	loc      *time.Location
	limitKey LimitKey
	logger   *zap.Logger
}

func NewReservationService(
	store repository.ReservationStore,
	users repository.Users,
	notifier notify.Notifier,
	stats metrics.Collector,
	clock Clock,
	opts ReservationOptions,
	logger *zap.Logger,
) *ReservationService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.LimitKey == "" {
		opts.LimitKey = LimitByUser
	}

	return &ReservationService{
		store:    store,
		users:    users,
		notifier: notifier,
		stats:    stats,
		clock:    clock,
		loc:      opts.Location,
		limitKey: opts.LimitKey,
		logger:   logger,
	}
}

type CreateInput struct {
	Category    model.Category
	StartTime   time.Time
	EndTime     time.Time
	Description *string
}

// UpdateInput nil-поля не меняются
type UpdateInput struct {
	Category    *model.Category
	StartTime   *time.Time
	EndTime     *time.Time
	Description *string
}

// ConflictCheck результат предварительной проверки
type ConflictCheck struct {
	HasConflict bool                 `json:"has_conflict"`
	Conflicts   []*model.Reservation `json:"conflicts"`
}

// Location часовой пояс бизнес-правил
func (s *ReservationService) Location() *time.Location {
	return s.loc
}

// Create проверяет правила, лимит и пересечения и создаёт бронирование в статусе pending.
// Лимит и пересечения проверяются в той же транзакции, что и вставка.
func (s *ReservationService) Create(ctx context.Context, actor auth.Identity, in CreateInput) (*model.Reservation, error) {
	now := s.clock.Now()
	interval := model.Interval{Category: in.Category, Start: in.StartTime, End: in.EndTime}

	if err := ValidateInterval(interval, now, s.loc); err != nil {
		s.stats.Inc("reservation.validation_failed")
		return nil, err
	}

	key, err := s.ownerKey(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	reservation := &model.Reservation{
		UserID:      actor.UserID,
		Category:    in.Category,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Description: normalizeText(in.Description),
		Status:      model.StatusPending,
	}

	err = s.store.WithTx(ctx, "create reservation", func(ctx context.Context, repo repository.Reservations) error {
		// Порядок блокировок: владелец, затем категория
		if err := repo.LockOwner(ctx, key); err != nil {
			return err
		}

		existing, err := repo.FindActiveByOwner(ctx, key)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return limitError(existing)
		}

		if err := repo.LockCategory(ctx, interval.Category); err != nil {
			return err
		}

		conflicts, err := repo.FindActiveOverlapping(ctx, interval, nil)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return conflictError(conflicts)
		}

		return repo.Create(ctx, reservation)
	})
	if err != nil {
		return nil, s.fail("create", err)
	}

	s.stats.Inc("reservation.created")
	s.logger.Info("Reservation created",
		zap.Int64("reservation_id", reservation.ID),
		zap.Int64("user_id", actor.UserID),
		zap.String("category", string(reservation.Category)),
		zap.Time("start_time", reservation.StartTime),
		zap.Time("end_time", reservation.EndTime),
	)
	s.emit(ctx, notify.EventCreated, reservation, actor.UserID)

	return reservation, nil
}

// Update меняет время, категорию или описание ожидающего бронирования.
// Изменение возможно не позднее чем за час до начала.
func (s *ReservationService) Update(ctx context.Context, actor auth.Identity, id int64, in UpdateInput) (*model.Reservation, error) {
	now := s.clock.Now()

	var updated *model.Reservation
	err := s.store.WithTx(ctx, "update reservation", func(ctx context.Context, repo repository.Reservations) error {
		res, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if res == nil {
			return apperr.NotFound("reservation", id)
		}

		if res.UserID != actor.UserID && !actor.IsAdmin() {
			return apperr.Forbidden("You can only modify your own reservations.")
		}

		if res.Status != model.StatusPending {
			return apperr.StateTransition(
				fmt.Sprintf("Only pending reservations can be modified (current status: %s).", res.Status), nil)
		}

		if res.StartTime.Sub(now) < ModificationCutoff {
			return apperr.Deadline("Reservations can only be modified up to 1 hour before they start.")
		}

		before := res.Interval()

		if in.Category != nil {
			res.Category = *in.Category
		}
		if in.StartTime != nil {
			res.StartTime = *in.StartTime
		}
		if in.EndTime != nil {
			res.EndTime = *in.EndTime
		}
		if in.Description != nil {
			res.Description = normalizeText(in.Description)
		}

		after := res.Interval()
		if after != before {
			if err := ValidateInterval(after, now, s.loc); err != nil {
				return err
			}

			for _, c := range lockOrder(before.Category, after.Category) {
				if err := repo.LockCategory(ctx, c); err != nil {
					return err
				}
			}

			conflicts, err := repo.FindActiveOverlapping(ctx, after, &res.ID)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return conflictError(conflicts)
			}
		}

		if err := repo.Update(ctx, res); err != nil {
			return err
		}

		updated = res
		return nil
	})
	if err != nil {
		return nil, s.fail("update", err)
	}

	s.logger.Info("Reservation updated",
		zap.Int64("reservation_id", id),
		zap.Int64("actor_id", actor.UserID),
	)
	s.emit(ctx, notify.EventUpdated, updated, actor.UserID)

	return updated, nil
}

// Approve одобряет ожидающее бронирование
func (s *ReservationService) Approve(ctx context.Context, actor auth.Identity, id int64) (*model.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Only administrators can approve reservations.")
	}

	return s.transition(ctx, actor, id, model.EventApprove, func(res *model.Reservation, now time.Time) error {
		res.ApprovedAt = &now
		return nil
	})
}

// Reject отклоняет бронирование, причина обязательна
func (s *ReservationService) Reject(ctx context.Context, actor auth.Identity, id int64, reason string) (*model.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Only administrators can reject reservations.")
	}

	reason = strings.TrimSpace(reason)

	// пустая причина проверяется после таблицы переходов
	return s.transition(ctx, actor, id, model.EventReject, func(res *model.Reservation, _ time.Time) error {
		if reason == "" {
			return apperr.Validation("comment_required", "A reason is required to reject a reservation.")
		}
		res.AdminComment = &reason
		return nil
	})
}

// Cancel отменяет бронирование владельцем или администратором
func (s *ReservationService) Cancel(ctx context.Context, actor auth.Identity, id int64) (*model.Reservation, error) {
	return s.transition(ctx, actor, id, model.EventCancel, func(res *model.Reservation, _ time.Time) error {
		if res.UserID != actor.UserID && !actor.IsAdmin() {
			return apperr.Forbidden("You can only cancel your own reservations.")
		}
		return nil
	})
}

// Complete завершает одобренное бронирование после его окончания
func (s *ReservationService) Complete(ctx context.Context, actor auth.Identity, id int64) (*model.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Only administrators can complete reservations.")
	}

	return s.transition(ctx, actor, id, model.EventComplete, func(res *model.Reservation, now time.Time) error {
		if now.Before(res.EndTime) {
			return apperr.New(apperr.KindStateTransition, "not_elapsed",
				"A reservation can only be completed after it has ended.")
		}
		res.CompletedAt = &now
		return nil
	})
}

// transition выполняет переход по таблице жизненного цикла под блокировкой строки,
// поэтому два одновременных решения по одному бронированию не пройдут оба
func (s *ReservationService) transition(
	ctx context.Context,
	actor auth.Identity,
	id int64,
	event model.Event,
	guard func(res *model.Reservation, now time.Time) error,
) (*model.Reservation, error) {
	now := s.clock.Now()

	var updated *model.Reservation
	err := s.store.WithTx(ctx, string(event)+" reservation", func(ctx context.Context, repo repository.Reservations) error {
		res, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if res == nil {
			return apperr.NotFound("reservation", id)
		}

		next, err := model.NextStatus(res.Status, event)
		if err != nil {
			return apperr.StateTransition(
				fmt.Sprintf("Cannot %s a reservation that is %s.", event, res.Status), err)
		}

		if err := guard(res, now); err != nil {
			return err
		}

		res.Status = next
		if err := repo.Update(ctx, res); err != nil {
			return err
		}

		updated = res
		return nil
	})
	if err != nil {
		return nil, s.fail(string(event), err)
	}

	s.logger.Info("Reservation status changed",
		zap.Int64("reservation_id", id),
		zap.String("event", string(event)),
		zap.String("status", string(updated.Status)),
		zap.Int64("actor_id", actor.UserID),
	)
	s.stats.Inc("reservation." + string(event))
	s.emit(ctx, eventFor(event), updated, actor.UserID)

	return updated, nil
}

// Delete физически удаляет бронирование, только для администратора
func (s *ReservationService) Delete(ctx context.Context, actor auth.Identity, id int64) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("Only administrators can delete reservations.")
	}

	var deleted *model.Reservation
	err := s.store.WithTx(ctx, "delete reservation", func(ctx context.Context, repo repository.Reservations) error {
		res, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if res == nil {
			return apperr.NotFound("reservation", id)
		}

		deleted = res
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return s.fail("delete", err)
	}

	s.logger.Info("Reservation deleted",
		zap.Int64("reservation_id", id),
		zap.Int64("actor_id", actor.UserID),
	)
	s.emit(ctx, notify.EventDeleted, deleted, actor.UserID)

	return nil
}

// CheckConflict предварительная проверка для интерфейса.
// Окончательное решение принимается при записи.
func (s *ReservationService) CheckConflict(ctx context.Context, interval model.Interval, excludeID *int64) (*ConflictCheck, error) {
	if !interval.Category.Valid() {
		return nil, apperr.Validation(RuleInvalidCategory, "Unknown reservation category.")
	}
	if !interval.End.After(interval.Start) {
		return nil, apperr.Validation(RuleEndBeforeStart, "End time must be after start time.")
	}

	conflicts, err := s.store.FindActiveOverlapping(ctx, interval, excludeID)
	if err != nil {
		return nil, s.fail("check conflict", err)
	}

	return &ConflictCheck{
		HasConflict: len(conflicts) > 0,
		Conflicts:   conflicts,
	}, nil
}

// HasExistingActiveReservation есть ли у владельца активные бронирования
func (s *ReservationService) HasExistingActiveReservation(ctx context.Context, userID int64) (bool, []*model.Reservation, error) {
	key, err := s.ownerKey(ctx, userID)
	if err != nil {
		return false, nil, err
	}

	existing, err := s.store.FindActiveByOwner(ctx, key)
	if err != nil {
		return false, nil, s.fail("find owner reservations", err)
	}

	return len(existing) > 0, existing, nil
}

// Get бронирование по ID; обычный пользователь видит только свои
func (s *ReservationService) Get(ctx context.Context, actor auth.Identity, id int64) (*model.Reservation, error) {
	res, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("get", err)
	}
	if res == nil {
		return nil, apperr.NotFound("reservation", id)
	}

	if res.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, apperr.Forbidden("You can only view your own reservations.")
	}

	return res, nil
}

// List список бронирований; обычному пользователю только свои
func (s *ReservationService) List(ctx context.Context, actor auth.Identity, filter model.ReservationFilter) ([]*model.Reservation, int64, error) {
	if !actor.IsAdmin() {
		filter.UserID = &actor.UserID
	}
	filter.Normalize()

	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, s.fail("list", err)
	}

	return items, total, nil
}

// ActiveBetween активные бронирования, пересекающие [from, to)
func (s *ReservationService) ActiveBetween(ctx context.Context, from, to time.Time) ([]*model.Reservation, error) {
	if !to.After(from) {
		return nil, apperr.Validation("invalid_range", "The end of the range must be after its start.")
	}

	items, err := s.store.ListActiveBetween(ctx, from, to)
	if err != nil {
		return nil, s.fail("list active", err)
	}
	return items, nil
}

// Calendar занятые интервалы за период, без данных владельцев
func (s *ReservationService) Calendar(ctx context.Context, from, to time.Time) ([]model.Interval, error) {
	items, err := s.ActiveBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	intervals := make([]model.Interval, 0, len(items))
	for _, r := range items {
		intervals = append(intervals, r.Interval())
	}

	return intervals, nil
}

// CompleteElapsed завершает одобренные бронирования, время которых прошло
func (s *ReservationService) CompleteElapsed(ctx context.Context) (int, error) {
	items, err := s.store.ListApprovedEndedBefore(ctx, s.clock.Now())
	if err != nil {
		return 0, s.fail("list elapsed", err)
	}

	system := auth.Identity{Role: auth.RoleAdmin}
	completed := 0
	for _, r := range items {
		_, err := s.Complete(ctx, system, r.ID)
		if err != nil {
			// Могли отменить между выборкой и переходом
			if apperr.IsKind(err, apperr.KindStateTransition) || apperr.IsKind(err, apperr.KindNotFound) {
				continue
			}
			return completed, err
		}
		completed++
	}

	return completed, nil
}

// ownerKey ключ лимита для пользователя
func (s *ReservationService) ownerKey(ctx context.Context, userID int64) (model.OwnerKey, error) {
	key := model.OwnerKey{UserID: userID}
	if s.limitKey != LimitByApartment {
		return key, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return key, s.fail("get owner", err)
	}
	if user != nil {
		key.Apartment = user.Apartment()
	}

	return key, nil
}

// fail приводит ошибку к apperr и логирует ошибки хранилища
func (s *ReservationService) fail(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrOverlap):
		s.stats.Inc("reservation.conflict")
		return apperr.Conflict("The selected time overlaps another reservation. Please choose a different time.")
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Duplicate("The reservation already exists.")
	}

	e := apperr.From(err)
	switch e.Kind {
	case apperr.KindConflict:
		s.stats.Inc("reservation.conflict")
	case apperr.KindLimitExceeded:
		s.stats.Inc("reservation.limit_exceeded")
	case apperr.KindPersistence:
		s.logger.Error("Reservation storage error", zap.String("op", op), zap.Error(err))
	}

	return e
}

func (s *ReservationService) emit(ctx context.Context, t notify.EventType, res *model.Reservation, actorID int64) {
	event := notify.Event{Type: t, Reservation: *res, ActorID: actorID, At: s.clock.Now()}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn("Failed to notify", zap.String("event", string(t)), zap.Error(err))
	}
}

func eventFor(e model.Event) notify.EventType {
	switch e {
	case model.EventApprove:
		return notify.EventApproved
	case model.EventReject:
		return notify.EventRejected
	case model.EventCancel:
		return notify.EventCancelled
	default:
		return notify.EventCompleted
	}
}

func conflictError(conflicts []*model.Reservation) *apperr.Error {
	return apperr.Conflict("The selected time overlaps another reservation. Please choose a different time.").
		WithDetails("conflicts", describe(conflicts)).
		WithDetails("conflict_count", len(conflicts))
}

func limitError(existing []*model.Reservation) *apperr.Error {
	return apperr.LimitExceeded("You already have an active reservation. Cancel it before booking another one.").
		WithDetails("existing", describe(existing)).
		WithDetails("existing_count", len(existing))
}

type reservationBrief struct {
	ID        int64          `json:"id"`
	Category  model.Category `json:"category"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Status    model.Status   `json:"status"`
}

func describe(items []*model.Reservation) []reservationBrief {
	out := make([]reservationBrief, 0, len(items))
	for _, r := range items {
		out = append(out, reservationBrief{
			ID:        r.ID,
			Category:  r.Category,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
			Status:    r.Status,
		})
	}
	return out
}

// lockOrder категории для блокировки в стабильном порядке
func lockOrder(a, b model.Category) []model.Category {
	if a == b {
		return []model.Category{a}
	}
	cats := []model.Category{a, b}
	slices.Sort(cats)
	return cats
}

func normalizeText(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
