// Package app holds small helpers about the running environment.
package app

import (
	"time"

	"spinwheel/pkg/config"
)

// IsLocal reports whether app.env is local.
func IsLocal() bool {
	return config.Get("app.env") == "local"
}

// IsProduction reports whether app.env is production.
func IsProduction() bool {
	return config.Get("app.env") == "production"
}

// IsTesting reports whether app.env is testing.
func IsTesting() bool {
	return config.Get("app.env") == "testing"
}

// Location returns the configured regional timezone. The wheel's calendar
// day is computed in this zone. Falls back to UTC when the name is unknown.
func Location() *time.Location {
	loc, err := time.LoadLocation(config.GetString("app.timezone", "Europe/Rome"))
	if err != nil {
		return time.UTC
	}
	return loc
}
