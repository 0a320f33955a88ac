// Package limiter parses rate strings and checks shared request quotas.
package limiter

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	limiterlib "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"spinwheel/pkg/config"
	"spinwheel/pkg/logger"
	"spinwheel/pkg/redis"
)

// Rate is a request rate per second.
type Rate struct {
	Rate float64
}

// ParseLimit reads "5-S", "10-M", "1000-H" or "2000-D".
func ParseLimit(limit string) (*Rate, error) {
	if _, err := limiterlib.NewRateFromFormatted(limit); err != nil {
		return nil, fmt.Errorf("invalid limit format: %w", err)
	}

	parts := strings.Split(limit, "-")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid limit format: %s", limit)
	}

	value, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid rate value: %s", parts[0])
	}

	var perSecond float64
	switch strings.ToUpper(parts[1]) {
	case "S":
		perSecond = value
	case "M":
		perSecond = value / 60.0
	case "H":
		perSecond = value / 3600.0
	case "D":
		perSecond = value / 86400.0
	default:
		return nil, fmt.Errorf("invalid time unit: %s", parts[1])
	}

	return &Rate{Rate: perSecond}, nil
}

// GetKeyIP keys a quota by client IP.
func GetKeyIP(c *gin.Context) string {
	return c.ClientIP()
}

// GetKeyRouteWithIP keys a quota by route and client IP.
func GetKeyRouteWithIP(c *gin.Context) string {
	return routeToKeyString(c.FullPath()) + c.ClientIP()
}

var (
	storeOnce sync.Once
	store     limiterlib.Store
	storeErr  error
)

// sharedStore is the redis store when redis is connected, otherwise a
// process-local one.
func sharedStore() (limiterlib.Store, error) {
	storeOnce.Do(func() {
		opts := limiterlib.StoreOptions{Prefix: config.GetString("app.name", "spinwheel") + ":limiter"}
		if redis.Redis != nil {
			store, storeErr = sredis.NewStoreWithOptions(redis.Redis.Client, opts)
			return
		}
		store = memory.NewStoreWithOptions(opts)
	})
	return store, storeErr
}

// CheckRate counts one hit of key against formatted ("5-M") and returns the
// quota state. Within one request only the first call counts.
func CheckRate(c *gin.Context, key string, formatted string) (limiterlib.Context, error) {
	var lctx limiterlib.Context
	rate, err := limiterlib.NewRateFromFormatted(formatted)
	if err != nil {
		logger.LogIf(err)
		return lctx, err
	}

	s, err := sharedStore()
	if err != nil {
		logger.LogIf(err)
		return lctx, err
	}
	limiterObj := limiterlib.New(s, rate)

	if c.GetBool("limiter-once") {
		return limiterObj.Peek(c, key)
	}
	c.Set("limiter-once", true)
	return limiterObj.Get(c, key)
}

func routeToKeyString(routeName string) string {
	routeName = strings.ReplaceAll(routeName, "/", "-")
	routeName = strings.ReplaceAll(routeName, ":", "_")
	return routeName
}
