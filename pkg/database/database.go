// Package database holds the shared gorm connection.
package database

import (
	"database/sql"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"spinwheel/pkg/logger"
)

// DB is the application connection; SQLDB is its pool.
var DB *gorm.DB
var SQLDB *sql.DB

// Open opens a gorm connection. Driver errors are translated, so unique
// violations surface as gorm.ErrDuplicatedKey on every dialect.
func Open(dialector gorm.Dialector, _logger gormlogger.Interface) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         _logger,
		TranslateError: true,
	})
}

// Connect opens the application connection and panics on failure.
func Connect(dbConfig gorm.Dialector, _logger gormlogger.Interface) {
	var err error
	DB, err = Open(dbConfig, _logger)
	if err != nil {
		logger.ErrorString("Database", "Connect", err.Error())
		panic(err)
	}

	SQLDB, err = DB.DB()
	if err != nil {
		logger.ErrorString("Database", "SQLDB", err.Error())
		panic(err)
	}
}

// AutoMigrate migrates tables on DB.
func AutoMigrate(tables []interface{}) error {
	return DB.AutoMigrate(tables...)
}
