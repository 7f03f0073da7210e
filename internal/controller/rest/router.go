// Package rest REST API на gin.
package rest

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/auth"
	"github.com/Freeeeeet/apartment_booking/internal/metrics"
	"github.com/Freeeeeet/apartment_booking/internal/ratelimit"
	"github.com/Freeeeeet/apartment_booking/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MetricsSource коллектор, который умеет отдавать снимок
type MetricsSource interface {
	metrics.Collector
	Snapshot() metrics.Snapshot
}

type Deps struct {
	Reservations *service.ReservationService
	Users        *service.UserService
	Notices      *service.NoticeService
	Stats        *service.StatsService
	Tokens       *auth.TokenManager
	Metrics      MetricsSource
	Limiter      ratelimit.Limiter // nil отключает ограничение
	Clock        service.Clock
	Location     *time.Location
	Logger       *zap.Logger
}

// NewRouter собирает gin.Engine со всеми маршрутами /api
func NewRouter(d Deps) *gin.Engine {
	registerValidators()

	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Clock == nil {
		d.Clock = service.SystemClock{}
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(d.Logger), Metrics(d.Metrics))
	if d.Limiter != nil {
		r.Use(RateLimit(d.Limiter, d.Logger))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": errorBody{Code: "route_not_found", Message: "Route not found."}})
	})

	rh := &reservationHandler{svc: d.Reservations, clock: d.Clock, loc: d.Location}
	uh := &userHandler{svc: d.Users}
	nh := &noticeHandler{svc: d.Notices}
	sh := &statsHandler{svc: d.Stats, metrics: d.Metrics}

	api := r.Group("/api")
	{
		api.POST("/users/register", uh.Register)
		api.POST("/users/login", uh.Login)
		api.GET("/monitoring/health", sh.Health)

		secured := api.Group("")
		secured.Use(Auth(d.Tokens))
		{
			secured.GET("/users/me", uh.Me)

			secured.POST("/reservations", rh.Create)
			secured.GET("/reservations", rh.List)
			secured.GET("/reservations/conflicts/check", rh.CheckConflict)
			secured.GET("/reservations/calendar", rh.Calendar)
			secured.GET("/reservations/board.png", rh.Board)
			secured.GET("/reservations/:id", rh.Get)
			secured.PUT("/reservations/:id", rh.Update)
			secured.POST("/reservations/:id/cancel", rh.Cancel)

			secured.GET("/notices", nh.List)
			secured.GET("/notices/:id", nh.Get)

			admin := secured.Group("")
			admin.Use(RequireAdmin())
			{
				admin.GET("/users", uh.List)
				admin.PATCH("/users/:id/active", uh.SetActive)

				admin.POST("/reservations/:id/approve", rh.Approve)
				admin.POST("/reservations/:id/reject", rh.Reject)
				admin.POST("/reservations/:id/complete", rh.Complete)
				admin.DELETE("/reservations/:id", rh.Delete)

				admin.POST("/notices", nh.Create)
				admin.PUT("/notices/:id", nh.Update)
				admin.DELETE("/notices/:id", nh.Delete)

				admin.GET("/statistics/dashboard", sh.Dashboard)
				admin.GET("/monitoring/stats", sh.MonitoringStats)
			}
		}
	}

	return r
}
