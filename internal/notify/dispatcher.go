package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const sendTimeout = 10 * time.Second

// Dispatcher доставляет события в фоне, чтобы медленный получатель
// не задерживал ответ API. Ошибки доставки только логируются.
type Dispatcher struct {
	target Notifier
	queue  chan Event
	logger *zap.Logger
	wg     sync.WaitGroup

	// mu защищает closed и отправку в queue от закрытия канала
	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(target Notifier, buffer int, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		target: target,
		queue:  make(chan Event, buffer),
		logger: logger,
	}

	d.wg.Add(1)
	go d.run()

	return d
}

// Notify ставит событие в очередь; при переполнении или после Close событие отбрасывается
func (d *Dispatcher) Notify(_ context.Context, event Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("Dispatcher is closed, event dropped",
			zap.String("event", string(event.Type)),
			zap.Int64("reservation_id", event.Reservation.ID),
		)
		return nil
	}

	select {
	case d.queue <- event:
	default:
		d.logger.Warn("Notification queue is full, event dropped",
			zap.String("event", string(event.Type)),
			zap.Int64("reservation_id", event.Reservation.ID),
		)
	}
	return nil
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := d.target.Notify(ctx, event); err != nil {
			d.logger.Error("Failed to deliver notification",
				zap.String("event", string(event.Type)),
				zap.Int64("reservation_id", event.Reservation.ID),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// Close дожидается отправки событий из очереди, повторный вызов безопасен
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
}
