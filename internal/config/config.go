// Package config loads the service configuration from the environment.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shophub-ai/assistant"
)

// Config holds all configuration for the assistant service.
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8081"`

	// ShopHub CRUD API
	ShopAPIBaseURL string `envconfig:"SHOP_API_BASE_URL" default:"http://localhost:3001"`

	// Model configuration
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" default:""`
	ModelName    string `envconfig:"MODEL_NAME" default:"googleai/gemini-2.0-flash"`

	// Pipeline timeouts, in seconds
	LLMTimeoutSeconds  int `envconfig:"LLM_TIMEOUT_SECONDS" default:"30"`
	ToolTimeoutSeconds int `envconfig:"TOOL_TIMEOUT_SECONDS" default:"10"`

	// Pipeline behavior
	EnableKnowledge     bool `envconfig:"ENABLE_KNOWLEDGE" default:"true"`
	MaxHistoryTurns     int  `envconfig:"MAX_HISTORY_TURNS" default:"20"`
	PlanCacheTTLSeconds int  `envconfig:"PLAN_CACHE_TTL_SECONDS" default:"300"`

	// Event bus sizing
	EventBusBufferSize  int `envconfig:"EVENT_BUS_BUFFER_SIZE" default:"100"`
	EventBusWorkerCount int `envconfig:"EVENT_BUS_WORKER_COUNT" default:"5"`

	// Observability
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from a .env file if present, then from the
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, assistant.NewConfigurationError("failed to load configuration", err)
	}
	return &cfg, nil
}

// LLMTimeout returns the per-model-call deadline.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// ToolTimeout returns the per-tool-call deadline.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.ToolTimeoutSeconds) * time.Second
}

// PlanCacheTTL returns how long cached plans stay valid.
func (c *Config) PlanCacheTTL() time.Duration {
	return time.Duration(c.PlanCacheTTLSeconds) * time.Second
}
