package v1

import (
	"net/http"
	"sync/atomic"
	"time"

	"checkout/api/internal/domain"
	"checkout/api/internal/infra/cache"

	"github.com/gin-gonic/gin"
)

const DEFAULT_LIMIT = 150
const EXPIRATION_SECONDS = 30

// returns true if rate limit is exceeded
func invoiceRateLimit(key string, limit int) bool {
	var expiration = time.Second * time.Duration(EXPIRATION_SECONDS)

	count, ok := cache.InvoiceRateLimitsCache.LoadOrSet(key, new(atomic.Int32), expiration).(*atomic.Int32)
	if !ok {
		return true
	}

	return int(count.Add(1)) > limit
}

// limits requests per client ip and route
func (h *Handler) rateLimitMiddleware(limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if invoiceRateLimit(c.ClientIP()+" "+c.FullPath(), limit) {
			responseErr(c, http.StatusTooManyRequests, domain.ErrMsgRateLimitExceeded, "")
			return
		}
		c.Next()
	}
}

func (h *Handler) adminAccessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.config.PrivateKey == "" || h.config.PrivateKey != c.Request.Header.Get("Access") {
			responseErr(c, http.StatusUnauthorized, domain.ErrMsgAccessError, "")
			return
		}
		c.Next()
	}
}

// status and page responses must never be served from a cache
func noStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
