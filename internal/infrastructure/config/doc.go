// Package config provides 12-factor configuration for the simulator server.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - EventLog: SQLite event history (enabled, path, queue size)
//   - Simulator: Channel defaults and auto-tick interval
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - EVENTLOG_ENABLED, EVENTLOG_PATH, EVENTLOG_BUFFER
//   - SIM_DEFAULT_BUFFER_SIZE, SIM_TICK_INTERVAL
package config
