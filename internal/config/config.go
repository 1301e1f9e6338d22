package config

import "os"

// MediaRoot is the base directory for uploaded checkin files. Overridable
// through MEDIA_ROOT; tests point it at a temp dir.
var MediaRoot = GetEnv("MEDIA_ROOT", "./media")

// GetEnv reads an environment variable or returns the provided default
func GetEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

// ServerAddr returns the listen address for the HTTP server.
func ServerAddr() string {
	return "0.0.0.0:" + GetEnv("PORT", "8080")
}
