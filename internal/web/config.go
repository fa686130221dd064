package web

import "time"

// Config holds the HTTP server settings.
type Config struct {
	Host string
	Port int
	// APIKey, when set, protects the /api routes.
	APIKey          string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the server defaults for host and port.
func DefaultConfig(host string, port int) Config {
	return Config{
		Host:            host,
		Port:            port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}
