package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// MessageSender часть *bot.Bot, нужная для отправки сообщений
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier сообщает администратору о событиях в чат
type TelegramNotifier struct {
	sender MessageSender
	chatID int64
}

func NewTelegramNotifier(sender MessageSender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID}
}

func (n *TelegramNotifier) Notify(ctx context.Context, event Event) error {
	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      FormatEvent(event),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

var eventTitles = map[EventType]string{
	EventCreated:   "🆕 New reservation",
	EventUpdated:   "✏️ Reservation changed",
	EventApproved:  "✅ Reservation approved",
	EventRejected:  "🚫 Reservation rejected",
	EventCancelled: "❌ Reservation cancelled",
	EventCompleted: "✔️ Reservation completed",
	EventDeleted:   "🗑 Reservation deleted",
}

// FormatEvent текст сообщения в HTML-разметке Telegram
func FormatEvent(event Event) string {
	r := event.Reservation

	title, ok := eventTitles[event.Type]
	if !ok {
		title = string(event.Type)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b> #%d\n", title, r.ID)
	fmt.Fprintf(&sb, "Category: %s\n", r.Category)
	fmt.Fprintf(&sb, "Time: %s – %s\n", r.StartTime.Format("02.01.2006 15:04"), r.EndTime.Format("15:04"))
	fmt.Fprintf(&sb, "User: %d\n", r.UserID)
	if r.Description != nil && *r.Description != "" {
		fmt.Fprintf(&sb, "Note: %s\n", html.EscapeString(*r.Description))
	}
	if r.AdminComment != nil && *r.AdminComment != "" {
		fmt.Fprintf(&sb, "Comment: %s\n", html.EscapeString(*r.AdminComment))
	}
	if event.Type == EventCreated {
		fmt.Fprintf(&sb, "\n/approve %d\n/reject %d &lt;reason&gt;", r.ID, r.ID)
	}

	return sb.String()
}
