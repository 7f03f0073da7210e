// Package controller административный Telegram-бот.
package controller

import (
	"context"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/auth"
	"github.com/Freeeeeet/apartment_booking/internal/notify"
	"github.com/Freeeeeet/apartment_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot          *bot.Bot
	sender       notify.MessageSender
	reservations *service.ReservationService
	adminChatID  int64
	admin        auth.Identity
	loc          *time.Location
	logger       *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	reservations *service.ReservationService,
	adminChatID int64,
	adminUserID int64,
	loc *time.Location,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:          botInstance,
		sender:       botInstance,
		reservations: reservations,
		adminChatID:  adminChatID,
		admin:        auth.Identity{UserID: adminUserID, Role: auth.RoleAdmin},
		loc:          loc,
		logger:       logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/pending", bot.MatchTypeExact, c.HandlePending)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/approve", bot.MatchTypePrefix, c.HandleApprove)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/reject", bot.MatchTypePrefix, c.HandleReject)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "pending", Description: "📋 Pending reservations"},
		{Command: "approve", Description: "✅ Approve: /approve <id>"},
		{Command: "reject", Description: "🚫 Reject: /reject <id> <reason>"},
		{Command: "help", Description: "❓ Commands"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает long polling, блокирует до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting admin bot...")
	c.bot.Start(ctx)
	return nil
}
