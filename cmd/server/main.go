package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/app"
	"github.com/Freeeeeet/apartment_booking/internal/auth"
	"github.com/Freeeeeet/apartment_booking/internal/config"
	"github.com/Freeeeeet/apartment_booking/internal/controller"
	"github.com/Freeeeeet/apartment_booking/internal/controller/rest"
	"github.com/Freeeeeet/apartment_booking/internal/metrics"
	"github.com/Freeeeeet/apartment_booking/internal/notify"
	"github.com/Freeeeeet/apartment_booking/internal/ratelimit"
	"github.com/Freeeeeet/apartment_booking/internal/repository"
	"github.com/Freeeeeet/apartment_booking/internal/repository/base"
	"github.com/Freeeeeet/apartment_booking/internal/repository/memory"
	"github.com/Freeeeeet/apartment_booking/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

// stores набор хранилищ для выбранного STORAGE
type stores struct {
	reservations repository.ReservationStore
	users        repository.Users
	notices      repository.Notices
	stats        repository.Statistics
	close        func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("Invalid timezone", zap.Error(err))
	}

	logger.Info("Starting apartment booking server",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.Storage),
		zap.String("timezone", loc.String()),
		zap.String("limit_key", cfg.LimitKey),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer st.close()

	clock := service.SystemClock{}
	collector := metrics.NewMemory()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	var tgBot *bot.Bot
	if cfg.TelegramToken != "" {
		tgBot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}
	}

	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if tgBot != nil {
		notifiers = append(notifiers, notify.NewTelegramNotifier(tgBot, cfg.TelegramAdminChatID))
	}
	if cfg.AMQPURL != "" {
		publisher, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
	}
	dispatcher := notify.NewDispatcher(notifiers, 256, logger)
	defer dispatcher.Close()

	limitKey := service.LimitByUser
	if cfg.LimitKey == config.LimitKeyApartment {
		limitKey = service.LimitByApartment
	}

	reservationService := service.NewReservationService(st.reservations, st.users, dispatcher, collector, clock,
		service.ReservationOptions{Location: loc, LimitKey: limitKey}, logger)
	userService := service.NewUserService(st.users, tokens, clock, logger)
	noticeService := service.NewNoticeService(st.notices, logger)
	statsService := service.NewStatsService(st.stats, clock, loc, logger)

	if err := userService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Fatal("Failed to create admin account", zap.Error(err))
	}

	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		client, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer client.Close()
		limiter = ratelimit.NewRedisLimiter(client, cfg.RateLimitPerMinute, time.Minute)
	}

	router := rest.NewRouter(rest.Deps{
		Reservations: reservationService,
		Users:        userService,
		Notices:      noticeService,
		Stats:        statsService,
		Tokens:       tokens,
		Metrics:      collector,
		Limiter:      limiter,
		Clock:        clock,
		Location:     loc,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler := app.NewScheduler(reservationService, cfg.CompleteInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if tgBot != nil {
		botController := controller.NewBotController(tgBot, reservationService,
			cfg.TelegramAdminChatID, cfg.TelegramAdminUserID, loc, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands menu not set", zap.Error(err))
		}
		go botController.Start(ctx)
	}

	go func() {
		logger.Info("✅ HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("⚠️  Using in-memory storage, data is lost on restart")
		db := memory.New()
		return &stores{
			reservations: db.Reservations(),
			users:        db.Users(),
			notices:      db.Notices(),
			stats:        db.Stats(),
			close:        func() {},
		}, nil
	}

	pool, err := app.NewPool(ctx, cfg.DBDSN, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Migrations {
		migrator, err := app.NewMigrator(pool, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		err = migrator.Run(ctx)
		_ = migrator.Close()
		if err != nil {
			pool.Close()
			return nil, err
		}
	}

	txr := base.NewTxRunner(pool, logger)
	return &stores{
		reservations: repository.NewReservationRepository(pool, txr),
		users:        repository.NewUserRepository(pool),
		notices:      repository.NewNoticeRepository(pool),
		stats:        repository.NewStatsRepository(pool),
		close:        pool.Close,
	}, nil
}
