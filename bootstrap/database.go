package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"spinwheel/pkg/config"
	"spinwheel/pkg/database"
	"spinwheel/pkg/database/migrations"
	"spinwheel/pkg/logger"
)

// SetupDB connects the configured database and migrates the tables.
func SetupDB() {
	var dialector gorm.Dialector
	connection := config.Get("database.connection")
	switch connection {
	case "postgresql":
		dialector = setupPostgreSQL()
	case "sqlite":
		dialector = setupSQLite()
	default:
		panic(errors.New("unsupported database connection " + connection))
	}

	database.Connect(dialector, logger.NewGormLogger())

	setupDBPool(connection)

	if err := database.AutoMigrate(migrations.RegisterTables()); err != nil {
		logger.ErrorString("Database", "AutoMigrate", "migration failed: "+err.Error())
		panic(err)
	}
	logger.InfoString("Database", "AutoMigrate", "tables migrated")
}

func setupPostgreSQL() gorm.Dialector {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		config.Get("database.postgresql.host"),
		config.Get("database.postgresql.port"),
		config.Get("database.postgresql.username"),
		config.Get("database.postgresql.password"),
		config.Get("database.postgresql.database"),
		config.Get("database.postgresql.sslmode", "disable"),
	)
	return postgres.New(postgres.Config{DSN: dsn})
}

func setupSQLite() gorm.Dialector {
	file := config.Get("database.sqlite.database")
	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			panic(err)
		}
	}
	return sqlite.Open(file + "?_busy_timeout=5000&_foreign_keys=on")
}

func setupDBPool(connection string) {
	if connection == "sqlite" {
		// one writer at a time; a second connection would only hit SQLITE_BUSY
		database.SQLDB.SetMaxOpenConns(1)
		return
	}
	database.SQLDB.SetMaxOpenConns(config.GetInt("database.postgresql.max_open_connections"))
	database.SQLDB.SetMaxIdleConns(config.GetInt("database.postgresql.max_idle_connections"))
	database.SQLDB.SetConnMaxLifetime(time.Duration(config.GetInt("database.postgresql.max_life_seconds")) * time.Second)
}
