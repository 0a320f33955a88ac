package bootstrap

import (
	"fmt"

	"spinwheel/pkg/config"
	"spinwheel/pkg/logger"
	"spinwheel/pkg/redis"
)

// SetupRedis connects the main and queue databases. It reports false when
// no redis host is configured.
func SetupRedis() bool {
	host := config.GetString("redis.host")
	if host == "" {
		logger.WarnString("Redis", "Setup", "no redis host, running with in-process locks and no payout queue")
		return false
	}

	err := redis.InitRedis(
		fmt.Sprintf("%v:%v", host, config.GetString("redis.port")),
		config.GetString("redis.username"),
		config.GetString("redis.password"),
		config.GetInt("redis.database"),
		config.GetInt("redis.queue_database"),
	)
	if err != nil {
		panic(err)
	}
	return true
}
