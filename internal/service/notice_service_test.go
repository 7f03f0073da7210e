package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/apperr"
	"github.com/Freeeeeet/apartment_booking/internal/auth"
	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/Freeeeeet/apartment_booking/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNoticeLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewNoticeService(memory.New().Notices(), zap.NewNop())
	admin := auth.Identity{UserID: 1, Role: auth.RoleAdmin}
	resident := auth.Identity{UserID: 2, Role: auth.RoleUser}

	_, err := svc.Create(ctx, resident, NoticeInput{Title: "t", Content: "c"})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = svc.Create(ctx, admin, NoticeInput{Title: " ", Content: "c"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	draft, err := svc.Create(ctx, admin, NoticeInput{Title: "Water outage", Content: "Tuesday 10:00-12:00"})
	require.NoError(t, err)
	assert.Equal(t, model.NoticeCategoryGeneral, draft.Category)

	_, err = svc.Get(ctx, resident, draft.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, total, err := svc.List(ctx, resident, model.NoticeFilter{IncludeDrafts: true})
	require.NoError(t, err)
	assert.Zero(t, total)

	published := true
	urgent := model.NoticeCategoryUrgent
	updated, err := svc.Update(ctx, admin, draft.ID, NoticeUpdate{IsPublished: &published, Category: &urgent})
	require.NoError(t, err)
	assert.True(t, updated.IsPublished)

	seen, err := svc.Get(ctx, resident, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seen.ViewCount)

	seen, err = svc.Get(ctx, resident, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seen.ViewCount)

	require.NoError(t, svc.Delete(ctx, admin, draft.ID))
	assert.True(t, apperr.IsKind(svc.Delete(ctx, admin, draft.ID), apperr.KindNotFound))
}

func TestStatsDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LimitByUser)
	kim := f.resident(t, "kim", "")

	_, err := f.svc.Create(ctx, kim, input(span(model.CategoryElevator, 3, 10, 0, 11, 0)))
	require.NoError(t, err)

	stats := NewStatsService(f.db.Stats(), f.clock, time.UTC, zap.NewNop())

	_, err = stats.Dashboard(ctx, kim)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	f.clock.Set(time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC))
	dashboard, err := stats.Dashboard(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dashboard.TotalUsers)
	assert.Equal(t, int64(1), dashboard.TotalReservations)
	assert.Equal(t, int64(1), dashboard.TodayReservations)
	assert.Equal(t, int64(1), dashboard.ByStatus[model.StatusPending])
	assert.Equal(t, int64(1), dashboard.ByCategory[model.CategoryElevator])

	assert.NoError(t, stats.Health(ctx))
}

func TestDayBounds(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)

	// 2025-03-02 20:00 UTC уже 3 марта в Сеуле
	start, end := DayBounds(time.Date(2025, 3, 2, 20, 0, 0, 0, time.UTC), seoul)
	assert.True(t, start.Equal(time.Date(2025, 3, 2, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}
