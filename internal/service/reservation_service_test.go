package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/apperr"
	"github.com/Freeeeeet/apartment_booking/internal/auth"
	"github.com/Freeeeeet/apartment_booking/internal/metrics"
	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/Freeeeeet/apartment_booking/internal/notify"
	"github.com/Freeeeeet/apartment_booking/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) types() []notify.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.EventType
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc      *ReservationService
	db       *memory.DB
	clock    *testClock
	notifier *recordingNotifier
	stats    *metrics.Memory
	admin    auth.Identity
}

func newFixture(t *testing.T, key LimitKey) *fixture {
	t.Helper()

	clock := &testClock{now: rulesNow}
	db := memory.New()
	db.SetClock(clock.Now)
	notifier := &recordingNotifier{}
	stats := metrics.NewMemory()

	svc := NewReservationService(
		db.Reservations(),
		db.Users(),
		notifier,
		stats,
		clock,
		ReservationOptions{Location: time.UTC, LimitKey: key},
		zap.NewNop(),
	)

	return &fixture{
		svc:      svc,
		db:       db,
		clock:    clock,
		notifier: notifier,
		stats:    stats,
		admin:    auth.Identity{UserID: 1000, Role: auth.RoleAdmin},
	}
}

func (f *fixture) resident(t *testing.T, username, apartment string) auth.Identity {
	t.Helper()

	user := &model.User{Username: username, Email: username + "@example.com", Name: username, IsActive: true}
	if apartment != "" {
		user.ApartmentNumber = &apartment
	}
	require.NoError(t, f.db.Users().Create(context.Background(), user))

	return IdentityOf(user)
}

func input(iv model.Interval) CreateInput {
	return CreateInput{Category: iv.Category, StartTime: iv.Start, EndTime: iv.End}
}

func TestCreateEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LimitByUser)
	kim := f.resident(t, "kim", "101-1203")
	lee := f.resident(t, "lee", "102-0501")
	park := f.resident(t, "park", "103-0702")

	first, err := f.svc.Create(ctx, kim, input(span(model.CategoryElevator, 3, 10, 0, 11, 0)))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, first.Status)
	assert.NotZero(t, first.ID)

	_, err = f.svc.Create(ctx, lee, input(span(model.CategoryElevator, 3, 10, 30, 11, 30)))
	require.True(t, apperr.IsKind(err, apperr.KindConflict), "got %v", err)
	details := apperr.From(err).Details
	assert.Equal(t, 1, details["conflict_count"])

	third, err := f.svc.Create(ctx, park, input(span(model.CategoryParking, 3, 10, 0, 11, 0)))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, third.Status)

	_, err = f.svc.Create(ctx, lee, input(span(model.CategoryElevator, 8, 10, 0, 11, 0)))
	assert.Equal(t, RuleWeekend, ruleCode(t, err))

	assert.Equal(t, []notify.EventType{notify.EventCreated, notify.EventCreated}, f.notifier.types())
	snap := f.stats.Snapshot()
	assert.Equal(t, int64(2), snap.Counters["reservation.created"])
	assert.Equal(t, int64(1), snap.Counters["reservation.conflict"])
	assert.Equal(t, int64(1), snap.Counters["reservation.validation_failed"])
}

func TestCreateTouchingBoundaryIsNotConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LimitByUser)
	kim := f.resident(t, "kim", "")
	lee := f.resident(t, "lee", "")

	_, err := f.svc.Create(ctx, kim, input(span(model.CategoryElevator, 3, 9, 0, 10, 0)))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, lee, input(span(model.CategoryElevator, 3, 10, 0, 11, 0)))
	assert.NoError(t, err)
}

func TestCreatePerOwnerLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LimitByUser)
	kim := f.resident(t, "kim", "")

	first, err := f.svc.Create(ctx, kim, input(span(model.CategoryElevator, 3, 10, 0, 11, 0)))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, kim, input(span(model.CategoryParking, 4, 10, 0, 11, 0)))
	require.True(t, apperr.IsKind(err, apperr.KindLimitExceeded), "got %v", err)
	assert.Equal(t, 1, apperr.From(err).Details["existing_count"])

	has, existing, err := f.svc.HasExistingActiveReservation(ctx, kim.UserID)
	require.NoError(t, err)
	assert.True(t, has)
	assert.Len(t, existing, 1)

	_, err = f.svc.Cancel(ctx, kim, first.ID)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, kim, input(span(model.CategoryParking, 4, 10, 0, 11, 0)))
	assert.NoError(t, err)
}

func TestCreateLimitByApartmentSpellings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LimitByApartment)
	users := NewUserService(f.db.Users(), auth.NewTokenManager("test-secret", time.Hour), f.clock, zap.NewNop())

	register := func(username, apartment string) auth.Identity {
		user, err := users.Register(ctx, RegisterInput{
			Username:        username,
			Email:           username + "@example.com",
			Password:        "password123",
			Name:            username,
			ApartmentNumber: &apartment,
		})
		require.NoError(t, err)
		return IdentityOf(user)
	}

	husband := register("husband", "101동 1203호")
	wife := register("wife", "101동1203호")
	assert.Equal(t, husband.Apartment, wife.Apartment)

	_, err := f.svc.Create(ctx, husband, input(span(model.CategoryElevator, 3, 10, 0, 11, 0)))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, wife, input(span(model.CategoryParking, 3, 10, 0, 11, 0)))
	assert.True(t, apperr.IsKind(err, apperr.KindLimitExceeded), "got %v", err)
}

func TestCreateLimitByApartment(t *testing.T) {
	ctx := context.Background()

	byApartment := newFixture(t, LimitByApartment)
	husband := byApartment.resident(t, "husband", "101-1203")
	wife := byApartment.resident(t, "wife", "101-1203")

	_, err := byApartment.svc.Create(ctx, husband, input(span(model.CategoryElevator, 3, 10, 0, 11, 0)))
	require.NoError(t, err)
	_, err = byApartment.svc.Create(ctx, wife, input(span(model.CategoryParking, 3, 10, 0, 11, 0)))
	assert.True(t, apperr.IsKind(err, apperr.KindLimitExceeded), "got %v", err)

	byUser := newFixture(t, LimitByUser)
	husband = byUser.resident(t, "husband", "101-1203")
	wife = byUser.resident(t, "wife", "101-1203")

	_, err = byUser.svc.Create(ctx, husband, input(span(model.CategoryElevator, 3, 10, 0, 11, 0)))
	require.NoError(t, err)
	_, err = byUser.svc.Create(ctx, wife, input(span(model.CategoryParking, 3, 10, 0, 11, 0)))
	assert.NoError(t, err)
}

func TestCreateConcurrentRace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LimitByUser)

	const n = 8
	actors := make([]auth.Identity, n)
	for i := range actors {
		actors[i] = f.resident(t, "user"+string(rune('a'+i)), "")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	start := make(chan struct{})

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(actor auth.Identity, offset int) {
			defer wg.Done()
			<-start

			// Все интервалы пересекаются с 10:30-11:00
			iv := span(model.CategoryElevator, 3, 10, 0, 11, 0)
			if offset%2 == 1 {
				iv = span(model.CategoryElevator, 3, 10, 30, 12, 0)
			}

			_, err := f.svc.Create(ctx, actor, input(iv))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperr.IsKind(err, apperr.KindConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(actors[i], i)
	}

	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, conflicts)

	active, err := f.db.Reservations().FindActiveOverlapping(ctx, span(model.CategoryElevator, 3, 9, 0, 18, 0), nil)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestLifecycleRejectedIsTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LimitByUser)
	kim := f.resident(t, "kim", "")

	res, err := f.svc.Create(ctx, kim, input(span(model.CategoryElevator, 3, 10, 0, 11, 0)))
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, f.admin, res.ID, "  ")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	rejected, err := f.svc.Reject(ctx, f.admin, res.ID, "Elevator maintenance")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.AdminComment)
	assert.Equal(t, "Elevator maintenance", *rejected.AdminComment)

	f.clock.Set(time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))

	_, err = f.svc.Approve(ctx, f.admin, res.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindStateTransition), "approve: %v", err)
	_, err = f.svc.Reject(ctx, f.admin, res.ID, "again")
	assert.True(t, apperr.IsKind(err, apperr.KindStateTransition), "reject: %v", err)
	_, err = f.svc.Reject(ctx, f.admin, res.ID, "")
	assert.True(t, apperr.IsKind(err, apperr.KindStateTransition), "reject without reason: %v", err)
	_, err = f.svc.Complete(ctx, f.admin, res.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindStateTransition), "complete: %v", err)
	_, err = f.svc.Cancel(ctx, kim, res.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindStateTransition), "cancel: %v", err)

	stored, err := f.svc.Get(ctx, kim, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, stored.Status)
}

func TestLifecycleApproveAndComplete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LimitByUser)
	kim := f.resident(t, "kim", "")

	res, err := f.svc.Create(ctx, kim, input(span(model.CategoryElevator, 3, 10, 0, 11, 0)))
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, kim, res.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	approved, err := f.svc.Approve(ctx, f.admin, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)
	assert.NotNil(t, approved.ApprovedAt)

	_, err = f.svc.Complete(ctx, f.admin, res.ID)
	require.Error(t, err)
	assert.Equal(t, "not_elapsed", apperr.From(err).Code)

	f.clock.Set(time.Date(2025, 3, 3, 11, 0, 0, 0, time.UTC))

	n, err := f.svc.CompleteElapsed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := f.svc.Get(ctx, f.admin, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)

	assert.Equal(t, []notify.EventType{notify.EventCreated, notify.EventApproved, notify.EventCompleted}, f.notifier.types())
}

func TestCancelOnlyByOwnerOrAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LimitByUser)
	kim := f.resident(t, "kim", "")
	lee := f.resident(t, "lee", "")

	res, err := f.svc.Create(ctx, kim, input(span(model.CategoryElevator, 3, 10, 0, 11, 0)))
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, lee, res.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = f.svc.Approve(ctx, f.admin, res.ID)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, f.admin, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	_, err = f.svc.Cancel(ctx, kim, 9999)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestUpdateExcludesSelfAndDetectsConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LimitByUser)
	kim := f.resident(t, "kim", "")
	lee := f.resident(t, "lee", "")

	mine, err := f.svc.Create(ctx, kim, input(span(model.CategoryElevator, 3, 10, 0, 11, 0)))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, lee, input(span(model.CategoryElevator, 3, 13, 0, 14, 0)))
	require.NoError(t, err)

	shifted := span(model.CategoryElevator, 3, 10, 30, 11, 30)
	updated, err := f.svc.Update(ctx, kim, mine.ID, UpdateInput{StartTime: &shifted.Start, EndTime: &shifted.End})
	require.NoError(t, err)
	assert.True(t, updated.StartTime.Equal(shifted.Start))

	clash := span(model.CategoryElevator, 3, 12, 30, 13, 30)
	_, err = f.svc.Update(ctx, kim, mine.ID, UpdateInput{StartTime: &clash.Start, EndTime: &clash.End})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict), "got %v", err)

	parking := model.CategoryParking
	_, err = f.svc.Update(ctx, kim, mine.ID, UpdateInput{Category: &parking, StartTime: &clash.Start, EndTime: &clash.End})
	assert.NoError(t, err)

	bad := time.Date(2025, 3, 3, 12, 15, 0, 0, time.UTC)
	_, err = f.svc.Update(ctx, kim, mine.ID, UpdateInput{StartTime: &bad})
	assert.Equal(t, RuleGranularity, ruleCode(t, err))

	note := "  moving a sofa  "
	_, err = f.svc.Update(ctx, lee, mine.ID, UpdateInput{Description: &note})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	described, err := f.svc.Update(ctx, kim, mine.ID, UpdateInput{Description: &note})
	require.NoError(t, err)
	require.NotNil(t, described.Description)
	assert.Equal(t, "moving a sofa", *described.Description)
}

func TestUpdateDeadlineAndStatusGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LimitByUser)
	kim := f.resident(t, "kim", "")
	lee := f.resident(t, "lee", "")

	res, err := f.svc.Create(ctx, kim, input(span(model.CategoryElevator, 3, 10, 0, 11, 0)))
	require.NoError(t, err)

	note := "late change"
	f.clock.Set(time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC))
	_, err = f.svc.Update(ctx, kim, res.ID, UpdateInput{Description: &note})
	assert.True(t, apperr.IsKind(err, apperr.KindDeadline), "got %v", err)

	f.clock.Set(time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC))
	_, err = f.svc.Update(ctx, kim, res.ID, UpdateInput{Description: &note})
	assert.NoError(t, err)

	other, err := f.svc.Create(ctx, lee, input(span(model.CategoryParking, 4, 10, 0, 11, 0)))
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.admin, other.ID)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, lee, other.ID, UpdateInput{Description: &note})
	assert.True(t, apperr.IsKind(err, apperr.KindStateTransition), "got %v", err)
}

func TestCheckConflictProbe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LimitByUser)
	kim := f.resident(t, "kim", "")

	res, err := f.svc.Create(ctx, kim, input(span(model.CategoryElevator, 3, 10, 0, 11, 0)))
	require.NoError(t, err)

	check, err := f.svc.CheckConflict(ctx, span(model.CategoryElevator, 3, 10, 30, 11, 30), nil)
	require.NoError(t, err)
	assert.True(t, check.HasConflict)
	assert.Len(t, check.Conflicts, 1)

	check, err = f.svc.CheckConflict(ctx, span(model.CategoryElevator, 3, 10, 30, 11, 30), &res.ID)
	require.NoError(t, err)
	assert.False(t, check.HasConflict)

	check, err = f.svc.CheckConflict(ctx, span(model.CategoryParking, 3, 10, 30, 11, 30), nil)
	require.NoError(t, err)
	assert.False(t, check.HasConflict)
}

func TestListAndGetVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LimitByUser)
	kim := f.resident(t, "kim", "")
	lee := f.resident(t, "lee", "")

	mine, err := f.svc.Create(ctx, kim, input(span(model.CategoryElevator, 3, 10, 0, 11, 0)))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, lee, input(span(model.CategoryParking, 3, 10, 0, 11, 0)))
	require.NoError(t, err)

	items, total, err := f.svc.List(ctx, kim, model.ReservationFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, mine.ID, items[0].ID)

	_, total, err = f.svc.List(ctx, f.admin, model.ReservationFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, err = f.svc.Get(ctx, lee, mine.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	calendar, err := f.svc.Calendar(ctx,
		time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, calendar, 2)

	require.NoError(t, f.svc.Delete(ctx, f.admin, mine.ID))
	assert.True(t, apperr.IsKind(f.svc.Delete(ctx, kim, mine.ID), apperr.KindForbidden))
	assert.True(t, apperr.IsKind(f.svc.Delete(ctx, f.admin, mine.ID), apperr.KindNotFound))
}
