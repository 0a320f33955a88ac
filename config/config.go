// Package config registers the configuration blocks of the service.
package config

// Initialize is called from main's init so the init functions of this
// package run before the blocks are loaded.
func Initialize() {}
