package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/apperr"
	"github.com/Freeeeeet/apartment_booking/internal/auth"
	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/Freeeeeet/apartment_booking/internal/repository"
	"go.uber.org/zap"
)

type StatsService struct {
	statsRepo repository.Statistics
	clock     Clock
	loc       *time.Location
	logger    *zap.Logger
}

func NewStatsService(statsRepo repository.Statistics, clock Clock, loc *time.Location, logger *zap.Logger) *StatsService {
	if loc == nil {
		loc = time.Local
	}
	return &StatsService{statsRepo: statsRepo, clock: clock, loc: loc, logger: logger}
}

// Dashboard сводка для администратора; "сегодня" считается в часовом поясе дома
func (s *StatsService) Dashboard(ctx context.Context, actor auth.Identity) (*model.DashboardStats, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Only administrators can view statistics.")
	}

	dayStart, dayEnd := DayBounds(s.clock.Now(), s.loc)

	stats, err := s.statsRepo.Dashboard(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, apperr.Persistence(fmt.Errorf("dashboard: %w", err))
	}
	return stats, nil
}

// Health проверяет доступность хранилища
func (s *StatsService) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.statsRepo.Ping(ctx); err != nil {
		s.logger.Error("Storage health check failed", zap.Error(err))
		return err
	}
	return nil
}

// DayBounds начало и конец суток t в loc
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
