package config

import "spinwheel/pkg/config"

func init() {
	config.Add("app", func() map[string]interface{} {
		return map[string]interface{}{
			"name": config.Env("APP_NAME", "spinwheel"),

			// local, testing, production
			"env": config.Env("APP_ENV", "production"),

			"debug": config.Env("APP_DEBUG", false),

			"port": config.Env("APP_PORT", "3000"),

			// the wheel's calendar day; also used for log timestamps
			"timezone": config.Env("TIMEZONE", "Europe/Rome"),

			"cors_origin": config.Env("CORS_ORIGIN", "*"),

			// X-Admin-Token for /v1/admin; empty disables the admin routes
			"admin_token": config.Env("ADMIN_TOKEN", ""),

			// wallet locks: "redis" shares them between instances, "local" keeps them in process
			"lock_driver": config.Env("LOCK_DRIVER", "redis"),
		}
	})
}
