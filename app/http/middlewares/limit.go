package middlewares

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"golang.org/x/time/rate"

	"spinwheel/pkg/app"
	"spinwheel/pkg/limiter"
	"spinwheel/pkg/logger"
	"spinwheel/pkg/response"
)

const (
	// DefaultBurst is the burst allowed above the steady rate
	DefaultBurst = 100
	// idleLimiterTTL drops limiters of clients not seen for a day
	idleLimiterTTL = 24 * time.Hour
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix seconds
}

var (
	limiters    sync.Map // key -> *entry
	cleanupOnce sync.Once
)

// LimitIP limits requests per client IP with a process-local token bucket.
//
// Formats: "5-S", "10-M", "1000-H", "2000-D".
func LimitIP(limit string) gin.HandlerFunc {
	if app.IsTesting() {
		limit = "1000000-H"
	}
	return createLimiterHandler(limiter.GetKeyIP, limit, DefaultBurst)
}

// LimitPerRoute limits requests per route and client IP.
func LimitPerRoute(limit string) gin.HandlerFunc {
	if app.IsTesting() {
		limit = "1000000-H"
	}
	return createLimiterHandler(limiter.GetKeyRouteWithIP, limit, DefaultBurst)
}

// LimitShared limits requests per route and client IP across every instance,
// counting in the redis store when redis is connected.
func LimitShared(limit string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if app.IsTesting() {
			c.Next()
			return
		}

		result, err := limiter.CheckRate(c, limiter.GetKeyRouteWithIP(c), limit)
		if err != nil {
			logger.LogIf(err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", cast.ToString(result.Limit))
		c.Header("X-RateLimit-Remaining", cast.ToString(result.Remaining))
		c.Header("X-RateLimit-Reset", cast.ToString(result.Reset))

		if result.Reached {
			response.Abort429(c)
			return
		}
		c.Next()
	}
}

func createLimiterHandler(keyFunc func(*gin.Context) string, limit string, burst int) gin.HandlerFunc {
	r, err := limiter.ParseLimit(limit)
	if err != nil {
		// a bad limit string is a programming error
		panic(err)
	}
	cleanupOnce.Do(func() { go cleanupLimiters() })

	return func(c *gin.Context) {
		key := limit + ":" + keyFunc(c)
		lim := getLimiter(key, r, burst)

		if !lim.Allow() {
			response.Abort429(c)
			return
		}

		c.Header("X-RateLimit-Limit", cast.ToString(lim.Limit()))
		c.Header("X-RateLimit-Remaining", cast.ToString(int(lim.Tokens())))
		c.Next()
	}
}

func getLimiter(key string, r *limiter.Rate, burst int) *rate.Limiter {
	v, ok := limiters.Load(key)
	if !ok {
		v, _ = limiters.LoadOrStore(key, &entry{limiter: rate.NewLimiter(rate.Limit(r.Rate), burst)})
	}
	e := v.(*entry)
	e.lastSeen.Store(time.Now().Unix())
	return e.limiter
}

func cleanupLimiters() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for now := range ticker.C {
		limiters.Range(func(key, value interface{}) bool {
			if now.Sub(time.Unix(value.(*entry).lastSeen.Load(), 0)) > idleLimiterTTL {
				limiters.Delete(key)
			}
			return true
		})
	}
}
