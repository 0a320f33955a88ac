package config

import "spinwheel/pkg/config"

func init() {
	config.Add("queue", func() map[string]interface{} {
		return map[string]interface{}{
			"rate_limit":   config.Env("QUEUE_RATE_LIMIT", 100),
			"rate_burst":   config.Env("QUEUE_RATE_BURST", 100),
			"worker_count": config.Env("QUEUE_WORKER_COUNT", 2),
			// seconds before the first payout retry, doubled per attempt
			"retry_delay":     config.Env("QUEUE_RETRY_DELAY", 30),
			"max_retry_delay": config.Env("QUEUE_MAX_RETRY_DELAY", 1800),
			// seconds between promotions of delayed retries
			"poll_interval": config.Env("QUEUE_POLL_INTERVAL", 1),
		}
	})
}
