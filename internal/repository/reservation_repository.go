package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/Freeeeeet/apartment_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reservationColumns = `r.id, r.user_id, r.category, r.start_time, r.end_time, r.description,
	r.status, r.admin_comment, r.created_at, r.updated_at, r.approved_at, r.completed_at`

type ReservationRepository struct {
	*base.Repository
	txr *base.TxRunner
}

func NewReservationRepository(pool *pgxpool.Pool, txr *base.TxRunner) *ReservationRepository {
	return &ReservationRepository{Repository: base.NewRepository(pool), txr: txr}
}

// WithTx выполняет fn в SERIALIZABLE транзакции с повтором при конфликтах
func (r *ReservationRepository) WithTx(ctx context.Context, operation string, fn func(ctx context.Context, repo Reservations) error) error {
	// Уже внутри транзакции
	if r.txr == nil {
		return fn(ctx, r)
	}
	return r.txr.Run(ctx, operation, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &ReservationRepository{Repository: base.NewRepository(tx)})
	})
}

// Create создаёт новое бронирование
func (r *ReservationRepository) Create(ctx context.Context, res *model.Reservation) error {
	query := `
		INSERT INTO reservations (user_id, category, start_time, end_time, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		res.UserID,
		res.Category,
		res.StartTime,
		res.EndTime,
		res.Description,
		res.Status,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create reservation: %w", mapConstraint(err))
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	return r.getOne(ctx, `SELECT `+reservationColumns+` FROM reservations r WHERE r.id = $1`, id)
}

// GetByIDForUpdate блокирует строку до конца транзакции
func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Reservation, error) {
	return r.getOne(ctx, `SELECT `+reservationColumns+` FROM reservations r WHERE r.id = $1 FOR UPDATE`, id)
}

func (r *ReservationRepository) getOne(ctx context.Context, query string, args ...any) (*model.Reservation, error) {
	res, err := scanReservation(r.QueryRow(ctx, query, args...))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

// Update сохраняет изменяемые поля бронирования
func (r *ReservationRepository) Update(ctx context.Context, res *model.Reservation) error {
	query := `
		UPDATE reservations
		SET category = $1, start_time = $2, end_time = $3, description = $4,
		    status = $5, admin_comment = $6, approved_at = $7, completed_at = $8,
		    updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		res.Category,
		res.StartTime,
		res.EndTime,
		res.Description,
		res.Status,
		res.AdminComment,
		res.ApprovedAt,
		res.CompletedAt,
		res.ID,
	).Scan(&res.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("reservation not found")
		}
		return fmt.Errorf("update reservation: %w", mapConstraint(err))
	}

	return nil
}

// Delete удаляет бронирование
func (r *ReservationRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("reservation not found")
	}

	return nil
}

// FindActiveOverlapping возвращает пересекающиеся активные бронирования и блокирует их.
// Условие полуоткрытое: start < $end AND end > $start.
func (r *ReservationRepository) FindActiveOverlapping(ctx context.Context, interval model.Interval, excludeID *int64) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations r
		WHERE r.category = $1
		  AND r.status IN ('pending', 'approved')
		  AND r.start_time < $3
		  AND r.end_time > $2
		  AND ($4::bigint IS NULL OR r.id <> $4)
		ORDER BY r.start_time
		FOR UPDATE
	`

	return r.list(ctx, "find overlapping reservations", query, interval.Category, interval.Start, interval.End, excludeID)
}

// FindActiveByOwner активные бронирования по пользователю или по квартире
func (r *ReservationRepository) FindActiveByOwner(ctx context.Context, key model.OwnerKey) ([]*model.Reservation, error) {
	if key.Apartment == "" {
		query := `
			SELECT ` + reservationColumns + `
			FROM reservations r
			WHERE r.user_id = $1 AND r.status IN ('pending', 'approved')
			ORDER BY r.start_time
			FOR UPDATE
		`
		return r.list(ctx, "find owner reservations", query, key.UserID)
	}

	query := `
		SELECT ` + reservationColumns + `
		FROM reservations r
		JOIN users u ON u.id = r.user_id
		WHERE u.apartment_number = $1 AND r.status IN ('pending', 'approved')
		ORDER BY r.start_time
		FOR UPDATE OF r
	`
	return r.list(ctx, "find apartment reservations", query, key.Apartment)
}

// LockCategory транзакционная advisory-блокировка категории.
// Сериализует создание бронирований в одной категории, включая случай без строк-кандидатов.
func (r *ReservationRepository) LockCategory(ctx context.Context, category model.Category) error {
	return r.advisoryLock(ctx, "reservation:category:"+string(category))
}

// LockOwner advisory-блокировка ключа лимита
func (r *ReservationRepository) LockOwner(ctx context.Context, key model.OwnerKey) error {
	return r.advisoryLock(ctx, "reservation:owner:"+key.String())
}

func (r *ReservationRepository) advisoryLock(ctx context.Context, key string) error {
	if _, err := r.Querier().Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("advisory lock %s: %w", key, err)
	}
	return nil
}

// List список бронирований с фильтрами и пагинацией
func (r *ReservationRepository) List(ctx context.Context, filter model.ReservationFilter) ([]*model.Reservation, int64, error) {
	filter.Normalize()

	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != nil {
		add("r.status = $%d", *filter.Status)
	}
	if filter.Category != nil {
		add("r.category = $%d", *filter.Category)
	}
	if filter.UserID != nil {
		add("r.user_id = $%d", *filter.UserID)
	}
	if filter.From != nil {
		add("r.start_time >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("r.start_time < $%d", *filter.To)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	total, err := r.Count(ctx, `SELECT COUNT(*) FROM reservations r `+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM reservations r
		%s
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT %d OFFSET %d
	`, reservationColumns, where, filter.PerPage, filter.Offset())

	items, err := r.list(ctx, "list reservations", query, args...)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// ListActiveBetween активные бронирования, пересекающие [from, to)
func (r *ReservationRepository) ListActiveBetween(ctx context.Context, from, to time.Time) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations r
		WHERE r.status IN ('pending', 'approved')
		  AND r.start_time < $2
		  AND r.end_time > $1
		ORDER BY r.start_time
	`
	return r.list(ctx, "list active reservations", query, from, to)
}

// ListApprovedEndedBefore одобренные бронирования, закончившиеся до t
func (r *ReservationRepository) ListApprovedEndedBefore(ctx context.Context, t time.Time) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations r
		WHERE r.status = 'approved' AND r.end_time <= $1
		ORDER BY r.end_time
	`
	return r.list(ctx, "list elapsed reservations", query, t)
}

func (r *ReservationRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Reservation, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var items []*model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		items = append(items, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.Category,
		&res.StartTime,
		&res.EndTime,
		&res.Description,
		&res.Status,
		&res.AdminComment,
		&res.CreatedAt,
		&res.UpdatedAt,
		&res.ApprovedAt,
		&res.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// mapConstraint переводит нарушения ограничений в ошибки пакета
func mapConstraint(err error) error {
	switch base.PgCode(err) {
	case base.CodeExclusionViolation:
		return fmt.Errorf("%w: %s", ErrOverlap, base.ConstraintName(err))
	case base.CodeUniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicate, base.ConstraintName(err))
	}
	return err
}
