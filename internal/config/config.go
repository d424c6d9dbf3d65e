package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Env      string
	LogLevel string

	// Clinic backend
	APIBaseURL string
	APITimeout time.Duration

	// Credential store: where the access token obtained at login is kept.
	CredentialsPath string

	// Default UI language for the CLI (en, es, fr, ur).
	Language string

	// Prometheus metrics registration toggle.
	MetricsEnabled bool

	// Mock clinic server (cmd/mockclinic).
	MockListenAddr string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		APIBaseURL:      strings.TrimRight(getEnv("CLINIC_API_BASE_URL", "http://localhost:8001"), "/"),
		APITimeout:      getEnvAsDuration("CLINIC_API_TIMEOUT", 20*time.Second),
		CredentialsPath: getEnv("CREDENTIALS_PATH", defaultCredentialsPath()),
		Language:        strings.ToLower(getEnv("LANGUAGE", "en")),
		MetricsEnabled:  getEnvAsBool("METRICS_ENABLED", true),
		MockListenAddr:  getEnv("MOCK_LISTEN_ADDR", ":8001"),
	}
}

func defaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pedibook/credentials.json"
	}
	return home + "/.pedibook/credentials.json"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
