package controller

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/Freeeeeet/apartment_booking/internal/apperr"
	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "Reservation admin bot\n\n" +
	"/pending - reservations waiting for a decision\n" +
	"/approve &lt;id&gt; - approve a reservation\n" +
	"/reject &lt;id&gt; &lt;reason&gt; - reject a reservation"

// HandleHelp обрабатывает /start и /help
func (c *BotController) HandleHelp(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if chatID, ok := c.adminChat(update); ok {
		c.sendMessage(ctx, chatID, helpText)
	}
}

// HandlePending обрабатывает /pending
func (c *BotController) HandlePending(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID, ok := c.adminChat(update)
	if !ok {
		return
	}

	status := model.StatusPending
	items, total, err := c.reservations.List(ctx, c.admin, model.ReservationFilter{Status: &status, PerPage: 20})
	if err != nil {
		c.logger.Error("Failed to list pending reservations", zap.Error(err))
		c.sendMessage(ctx, chatID, "❌ Failed to load reservations. Try again later.")
		return
	}

	c.sendMessage(ctx, chatID, c.formatPending(items, total))
}

// HandleApprove обрабатывает /approve <id>
func (c *BotController) HandleApprove(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID, ok := c.adminChat(update)
	if !ok {
		return
	}

	args := strings.Fields(update.Message.Text)
	if len(args) != 2 {
		c.sendMessage(ctx, chatID, "Usage: /approve &lt;id&gt;")
		return
	}

	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		c.sendMessage(ctx, chatID, "❌ Reservation id must be a number.")
		return
	}

	res, err := c.reservations.Approve(ctx, c.admin, id)
	if err != nil {
		c.sendMessage(ctx, chatID, "❌ "+userMessage(err))
		return
	}

	c.sendMessage(ctx, chatID, fmt.Sprintf("✅ Reservation #%d approved.", res.ID))
}

// HandleReject обрабатывает /reject <id> <reason>
func (c *BotController) HandleReject(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chatID, ok := c.adminChat(update)
	if !ok {
		return
	}

	args := strings.SplitN(strings.TrimSpace(update.Message.Text), " ", 3)
	if len(args) < 3 {
		c.sendMessage(ctx, chatID, "Usage: /reject &lt;id&gt; &lt;reason&gt;")
		return
	}

	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		c.sendMessage(ctx, chatID, "❌ Reservation id must be a number.")
		return
	}

	res, err := c.reservations.Reject(ctx, c.admin, id, args[2])
	if err != nil {
		c.sendMessage(ctx, chatID, "❌ "+userMessage(err))
		return
	}

	c.sendMessage(ctx, chatID, fmt.Sprintf("🚫 Reservation #%d rejected.", res.ID))
}

// adminChat команды принимаются только из чата администратора
func (c *BotController) adminChat(update *models.Update) (int64, bool) {
	if update.Message == nil {
		return 0, false
	}

	chatID := update.Message.Chat.ID
	if chatID != c.adminChatID {
		c.logger.Warn("Ignoring command from unknown chat",
			zap.Int64("chat_id", chatID),
			zap.String("text", update.Message.Text),
		)
		return 0, false
	}

	return chatID, true
}

func (c *BotController) formatPending(items []*model.Reservation, total int64) string {
	if len(items) == 0 {
		return "No pending reservations 🎉"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Pending reservations: %d</b>\n\n", total)
	for _, r := range items {
		start := r.StartTime.In(c.loc)
		end := r.EndTime.In(c.loc)
		fmt.Fprintf(&sb, "#%d %s %s %s-%s (user %d)\n",
			r.ID, r.Category, start.Format("Mon 02.01"), start.Format("15:04"), end.Format("15:04"), r.UserID)
		if r.Description != nil {
			fmt.Fprintf(&sb, "   %s\n", html.EscapeString(*r.Description))
		}
	}
	if total > int64(len(items)) {
		fmt.Fprintf(&sb, "\n…and %d more", total-int64(len(items)))
	}

	return sb.String()
}

// userMessage текст ошибки, который можно показать администратору
func userMessage(err error) string {
	return html.EscapeString(apperr.From(err).Message)
}

// sendMessage отправляет сообщение и логирует если не удалось
func (c *BotController) sendMessage(ctx context.Context, chatID int64, text string) {
	_, err := c.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		c.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
