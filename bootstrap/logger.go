package bootstrap

import (
	"spinwheel/pkg/config"
	"spinwheel/pkg/logger"
)

// SetupLogger builds the zap logger from the log config block.
func SetupLogger() {
	logger.InitLogger(
		config.GetString("log.filename"),
		config.GetInt("log.max_size"),
		config.GetInt("log.max_backup"),
		config.GetInt("log.max_age"),
		config.GetBool("log.compress"),
		config.GetString("log.type"),
		config.GetString("log.level"),
	)
}
