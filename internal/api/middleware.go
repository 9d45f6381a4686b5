package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/segmentio/ksuid"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// CORS allows any origin to read market data and submit orders; this
// service sits behind an API gateway in production, so origin
// restriction is that gateway's job, not this process's.
func CORS() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	return cors.New(cfg)
}

// CorrelationID stamps every request with a ksuid-based request ID if
// the caller didn't already supply one, and echoes it back in the
// response so logs can be joined across services.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = ksuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// OrderSubmissionRateLimit caps order requests per client IP. It is
// applied to the /orders group, so order submission and cancellation
// share the limit; book snapshots, reports and reconciliation are not
// rate limited.
func OrderSubmissionRateLimit(perSecond int) gin.HandlerFunc {
	rate := limiter.Rate{Period: time.Second, Limit: int64(perSecond)}
	store := memorystore.NewStore()
	l := limiter.New(store, rate)

	return func(c *gin.Context) {
		ctx, err := l.Get(c.Request.Context(), c.ClientIP())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "rate limiter unavailable"})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
		if ctx.Reached {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "order submission rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// WrapGzip wraps the whole router in gzhttp's transparent compressor.
// This wraps at the http.Handler level, outside gin's own middleware
// chain, rather than as gin middleware, since gzhttp needs to own the
// ResponseWriter to buffer and compress the body.
func WrapGzip(handler http.Handler, logger *zap.Logger) http.Handler {
	wrapped, err := gzhttp.NewWrapper()
	if err != nil {
		logger.Warn("gzip response compression disabled: failed to build wrapper", zap.Error(err))
		return handler
	}
	return wrapped(handler)
}
