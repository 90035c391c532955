// ABOUTME: Centralized configuration for the model bridge server
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the bridge.
type Config struct {
	// Store settings
	RedisURL        string
	ConversationTTL time.Duration
	StoreMaxRetries int
	StoreRetryDelay time.Duration

	// Provider settings
	ProviderAPIKey     string
	ProviderBaseURL    string
	ProviderTimeout    time.Duration
	ProviderMaxRetries int
	ProviderRetryDelay time.Duration

	// Policy file locations
	RoutingConfigPath string
	AliasConfigPath   string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ConversationTTL:    getEnvDuration("CONVERSATION_TTL", 3*time.Hour),
		StoreMaxRetries:    getEnvInt("STORE_MAX_RETRIES", 3),
		StoreRetryDelay:    getEnvDuration("STORE_RETRY_DELAY", 500*time.Millisecond),
		ProviderAPIKey:     firstEnv("PROVIDER_API_KEY", "OPENAI_API_KEY"),
		ProviderBaseURL:    os.Getenv("PROVIDER_BASE_URL"),
		ProviderTimeout:    getEnvDuration("PROVIDER_TIMEOUT", 120*time.Second),
		ProviderMaxRetries: getEnvInt("PROVIDER_MAX_RETRIES", 3),
		ProviderRetryDelay: getEnvDuration("PROVIDER_RETRY_DELAY", 2*time.Second),
		RoutingConfigPath:  getEnv("TASK_MODEL_CONFIG_PATH", "conf/task_model_mapping.json"),
		AliasConfigPath:    getEnv("MODEL_ALIAS_CONFIG_PATH", "conf/model_aliases.json"),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.ConversationTTL <= 0 {
		return fmt.Errorf("CONVERSATION_TTL must be positive, got %s", c.ConversationTTL)
	}
	if c.StoreMaxRetries < 0 || c.StoreMaxRetries > 10 {
		return fmt.Errorf("STORE_MAX_RETRIES must be 0-10, got %d", c.StoreMaxRetries)
	}
	if c.ProviderMaxRetries < 0 || c.ProviderMaxRetries > 10 {
		return fmt.Errorf("PROVIDER_MAX_RETRIES must be 0-10, got %d", c.ProviderMaxRetries)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
