package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/auth"
	"github.com/Freeeeeet/apartment_booking/internal/metrics"
	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/Freeeeeet/apartment_booking/internal/notify"
	"github.com/Freeeeeet/apartment_booking/internal/repository/memory"
	"github.com/Freeeeeet/apartment_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const adminChat = int64(-100500)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

type fakeSender struct {
	mu   sync.Mutex
	sent []*bot.SendMessageParams
}

func (s *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, params)
	return &models.Message{}, nil
}

func (s *fakeSender) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return ""
	}
	return s.sent[len(s.sent)-1].Text
}

func newTestController(t *testing.T) (*BotController, *fakeSender, *model.Reservation) {
	t.Helper()

	db := memory.New()
	clock := fixedClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	reservations := service.NewReservationService(db.Reservations(), db.Users(), notify.Nop{}, metrics.Nop{}, clock,
		service.ReservationOptions{Location: time.UTC}, zap.NewNop())

	res, err := reservations.Create(context.Background(), auth.Identity{UserID: 7, Role: auth.RoleUser}, service.CreateInput{
		Category:  model.CategoryElevator,
		StartTime: time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 3, 3, 11, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	sender := &fakeSender{}
	c := &BotController{
		sender:       sender,
		reservations: reservations,
		adminChatID:  adminChat,
		admin:        auth.Identity{UserID: 1, Role: auth.RoleAdmin},
		loc:          time.UTC,
		logger:       zap.NewNop(),
	}
	return c, sender, res
}

func message(chatID int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{Chat: models.Chat{ID: chatID}, Text: text}}
}

func TestPendingAndApprove(t *testing.T) {
	ctx := context.Background()
	c, sender, res := newTestController(t)

	c.HandlePending(ctx, nil, message(adminChat, "/pending"))
	assert.Contains(t, sender.last(), "Pending reservations: 1")
	assert.Contains(t, sender.last(), "#1 elevator Mon 03.03 10:00-11:00")

	c.HandleApprove(ctx, nil, message(adminChat, "/approve abc"))
	assert.Contains(t, sender.last(), "must be a number")

	c.HandleApprove(ctx, nil, message(adminChat, "/approve 1"))
	assert.Contains(t, sender.last(), "approved")

	c.HandleApprove(ctx, nil, message(adminChat, "/approve 1"))
	assert.Contains(t, sender.last(), "Cannot approve")

	c.HandlePending(ctx, nil, message(adminChat, "/pending"))
	assert.Contains(t, sender.last(), "No pending reservations")

	stored, err := c.reservations.Get(ctx, c.admin, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, stored.Status)
}

func TestRejectRequiresReason(t *testing.T) {
	ctx := context.Background()
	c, sender, res := newTestController(t)

	c.HandleReject(ctx, nil, message(adminChat, "/reject 1"))
	assert.Contains(t, sender.last(), "Usage")

	c.HandleReject(ctx, nil, message(adminChat, "/reject 1 elevator is under maintenance"))
	assert.Contains(t, sender.last(), "rejected")

	stored, err := c.reservations.Get(ctx, c.admin, res.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AdminComment)
	assert.Equal(t, "elevator is under maintenance", *stored.AdminComment)
}

func TestIgnoresOtherChats(t *testing.T) {
	ctx := context.Background()
	c, sender, _ := newTestController(t)

	c.HandleApprove(ctx, nil, message(42, "/approve 1"))
	c.HandleHelp(ctx, nil, message(42, "/help"))
	assert.Empty(t, sender.sent)
}
