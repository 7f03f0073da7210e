package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/Freeeeeet/apartment_booking/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepository struct {
	*base.Repository
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{Repository: base.NewRepository(pool), pool: pool}
}

// Ping проверяет доступность базы
func (r *StatsRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Dashboard собирает сводку для администратора
func (r *StatsRepository) Dashboard(ctx context.Context, dayStart, dayEnd time.Time) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{
		ByStatus:   make(map[model.Status]int64),
		ByCategory: make(map[model.Category]int64),
	}

	err := r.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_active),
			(SELECT COUNT(*) FROM reservations),
			(SELECT COUNT(*) FROM reservations WHERE start_time >= $1 AND start_time < $2),
			(SELECT COUNT(*) FROM notices WHERE is_published)
	`, dayStart, dayEnd).Scan(
		&stats.TotalUsers,
		&stats.ActiveUsers,
		&stats.TotalReservations,
		&stats.TodayReservations,
		&stats.PublishedNotices,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard totals: %w", err)
	}

	rows, err := r.Query(ctx, `SELECT status, category, COUNT(*) FROM reservations GROUP BY status, category`)
	if err != nil {
		return nil, fmt.Errorf("dashboard breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status   model.Status
			category model.Category
			n        int64
		)
		if err := rows.Scan(&status, &category, &n); err != nil {
			return nil, fmt.Errorf("scan breakdown: %w", err)
		}
		stats.ByStatus[status] += n
		stats.ByCategory[category] += n
	}

	return stats, rows.Err()
}
