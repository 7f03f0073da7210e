package rest

import (
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/apperr"
	"github.com/Freeeeeet/apartment_booking/internal/auth"
	"github.com/Freeeeeet/apartment_booking/internal/metrics"
	"github.com/Freeeeeet/apartment_booking/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxIdentity     = "identity"
)

// RequestID берёт X-Request-ID клиента или генерирует новый
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// AccessLog логирует каждый запрос после ответа
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(ctxRequestID)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.Last().Error()))
		}

		switch {
		case status >= 500:
			logger.Error("Request failed", fields...)
		case status >= 400:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request handled", fields...)
		}
	}
}

// Metrics отдаёт длительность и статус запроса в коллектор
func Metrics(collector metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		collector.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// RateLimit ограничивает запросы по IP клиента. Ошибки лимитера запрос не блокируют.
func RateLimit(limiter ratelimit.Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
			respondError(c, apperr.RateLimited())
			return
		}
		c.Next()
	}
}

// Auth проверяет Bearer токен и кладёт auth.Identity в контекст
func Auth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			respondError(c, apperr.Unauthorized("Missing bearer token."))
			return
		}

		id, err := tokens.Parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			respondError(c, apperr.Unauthorized("Invalid or expired token."))
			return
		}

		c.Set(ctxIdentity, id)
		c.Next()
	}
}

// RequireAdmin пропускает только администраторов
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identity(c).IsAdmin() {
			respondError(c, apperr.Forbidden("Administrator access required."))
			return
		}
		c.Next()
	}
}

func identity(c *gin.Context) auth.Identity {
	v, _ := c.Get(ctxIdentity)
	id, _ := v.(auth.Identity)
	return id
}
