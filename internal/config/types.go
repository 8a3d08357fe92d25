package config

// Config holds all configuration for the application.
type Config struct {
	Port      string
	ProjectID string
	Auth      AuthConfig
}

// AuthConfig carries the externally-issued bearer credential the API
// requires. Token verification itself happens upstream; the engine only
// checks presentation.
type AuthConfig struct {
	BearerToken string
}
