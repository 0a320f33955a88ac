package config

import "spinwheel/pkg/config"

func init() {
	config.Add("redis", func() map[string]interface{} {
		return map[string]interface{}{
			// empty host runs without redis: local locks, in-memory limiter, no payout queue
			"host":     config.Env("REDIS_HOST", "127.0.0.1"),
			"port":     config.Env("REDIS_PORT", "6379"),
			"username": config.Env("REDIS_USERNAME", ""),
			"password": config.Env("REDIS_PASSWORD", ""),

			// rate limits and wallet locks
			"database": config.Env("REDIS_MAIN_DB", 1),
			"prefix":   config.Env("REDIS_PREFIX", "spinwheel"),

			// payout retries
			"queue_database": config.Env("REDIS_QUEUE_DB", 2),
			"queue_prefix":   config.Env("REDIS_QUEUE_PREFIX", "spinwheel:queue"),
			// seconds a task status is kept
			"queue_timeout": config.Env("REDIS_QUEUE_TIMEOUT", 86400),
		}
	})
}
