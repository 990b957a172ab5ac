package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	APIBaseURL     string        // Base URL of the Darah Tanyoe API (no trailing slash)
	RedisURI       string        // Redis connection string for the session store
	Port           string
	AllowedOrigins []string      // CORS: origins allowed to call the /api endpoints
	SessionTTL     time.Duration // Browser session lifetime in the store
	Environment    string        // ENV: production, development, etc.
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{getEnv("DASHBOARD_URL", "http://localhost:3000")}
	}

	return &Config{
		APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/"),
		RedisURI:       getEnv("REDIS_URI", "redis://localhost:6379/0"),
		Port:           getEnv("PORT", "3000"),
		AllowedOrigins: allowedOrigins,
		SessionTTL:     getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		Environment:    env,
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
