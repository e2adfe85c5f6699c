package config

import (
	"flag"
	"os"
	"time"
)

type Config struct {
	Mode         string
	HTTPAddress  string
	MCPAddress   string
	LogLevel     string
	SessionKey   string
	DatabaseDSN  string
	DeliverDelay time.Duration
	ReadDelay    time.Duration
}

func Load() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Mode, "mode", "server", "Run mode: server or interactive")
	flag.StringVar(&cfg.HTTPAddress, "http-addr", getEnv("CHATFLOW_HTTP_ADDRESS", "127.0.0.1:8080"), "HTTP API address")
	flag.StringVar(&cfg.MCPAddress, "mcp-addr", getEnv("CHATFLOW_MCP_ADDRESS", "127.0.0.1:8081"), "MCP SSE server address")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("CHATFLOW_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.StringVar(&cfg.SessionKey, "session-key", getEnv("CHATFLOW_SESSION_KEY", "chatflow-dev-session-key"), "Cookie session signing key")
	flag.StringVar(&cfg.DatabaseDSN, "db", getEnv("CHATFLOW_DATABASE_DSN", "file::memory:?cache=shared"), "SQLite DSN (in-memory by default)")
	flag.DurationVar(&cfg.DeliverDelay, "deliver-delay", getEnvDuration("CHATFLOW_DELIVER_DELAY", time.Second), "Simulated delivery ack delay")
	flag.DurationVar(&cfg.ReadDelay, "read-delay", getEnvDuration("CHATFLOW_READ_DELAY", 3*time.Second), "Simulated read receipt delay")

	flag.Parse()

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
