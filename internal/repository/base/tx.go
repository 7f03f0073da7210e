package base

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 20 * time.Millisecond
)

// TxRunner выполняет функцию в SERIALIZABLE транзакции и
// повторяет её при сериализационном конфликте или дедлоке
type TxRunner struct {
	pool        *pgxpool.Pool
	logger      *zap.Logger
	maxAttempts uint64
	backoff     time.Duration
}

func NewTxRunner(pool *pgxpool.Pool, logger *zap.Logger) *TxRunner {
	return &TxRunner{
		pool:        pool,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
	}
}

// Run открывает транзакцию, передаёт её в fn и коммитит.
// Любая ошибка fn откатывает транзакцию.
func (t *TxRunner) Run(ctx context.Context, operation string, fn func(ctx context.Context, tx pgx.Tx) error) error {
	b := retry.WithMaxRetries(t.maxAttempts-1, retry.NewExponential(t.backoff))

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := t.runOnce(ctx, fn)
		if err != nil && IsRetryable(err) {
			t.logger.Warn("Transaction conflict, retrying",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.String("sqlstate", PgCode(err)),
			)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (t *TxRunner) runOnce(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
