package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier пишет события в лог
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	n.logger.Info("Reservation event",
		zap.String("event", string(event.Type)),
		zap.Int64("reservation_id", event.Reservation.ID),
		zap.Int64("user_id", event.Reservation.UserID),
		zap.String("category", string(event.Reservation.Category)),
		zap.Time("start_time", event.Reservation.StartTime),
		zap.Int64("actor_id", event.ActorID),
	)
	return nil
}
