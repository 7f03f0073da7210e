package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ReservationCompleter завершает одобренные бронирования, время которых прошло
type ReservationCompleter interface {
	CompleteElapsed(ctx context.Context) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	completer ReservationCompleter
	interval  time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
	done      chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(completer ReservationCompleter, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		completer: completer,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.runCompletionTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения текущего прохода
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

// runCompletionTask периодически завершает прошедшие бронирования
func (s *Scheduler) runCompletionTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.completeReservations(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.completeReservations(ctx)
		case <-s.stopChan:
			s.logger.Info("Completion task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Completion task cancelled")
			return
		}
	}
}

func (s *Scheduler) completeReservations(ctx context.Context) {
	n, err := s.completer.CompleteElapsed(ctx)
	if err != nil {
		s.logger.Error("Failed to complete elapsed reservations", zap.Error(err))
		return
	}

	if n > 0 {
		s.logger.Info("Elapsed reservations completed", zap.Int("count", n))
	}
}
