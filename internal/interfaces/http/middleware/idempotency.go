package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/logger"
	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client generated key of a submission
const IdempotencyKeyHeader = "Idempotency-Key"

// MaxIdempotencyKeyLength bounds the header value
const MaxIdempotencyKeyLength = 255

// IdempotencyConfig configures the Idempotency middleware
type IdempotencyConfig struct {
	Store shared.IdempotencyStore
	TTL   time.Duration
}

// Idempotency rejects a replayed Idempotency-Key with 409 while the first
// submission is remembered. Keys are scoped by tenant, method and path so
// that different tenants or orders never collide. A failed submission releases
// its key so the client can retry. Requests without the header pass through.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.Store == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.TTL <= 0 {
		cfg.TTL = shared.DefaultIdempotencyConfig().TTL
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInvalidInput, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}

		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		scoped := scopedIdempotencyKey(c, key)

		fresh, err := cfg.Store.MarkProcessed(ctx, scoped, cfg.TTL)
		if err != nil {
			// an unavailable store must not block payments
			log.Warn("Idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !fresh {
			log.Info("Duplicate submission rejected", zap.String("idempotency_key", key))
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicateRequest, "A request with this Idempotency-Key was already submitted", GetRequestID(c)))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := cfg.Store.Release(ctx, scoped); err != nil {
				log.Warn("Failed to release idempotency key", zap.String("idempotency_key", key), zap.Error(err))
			}
		}
	}
}

func scopedIdempotencyKey(c *gin.Context, key string) string {
	// the concrete path keeps the order ID in the key
	return strings.Join([]string{GetTenantID(c).String(), c.Request.Method, c.Request.URL.Path, key}, ":")
}
