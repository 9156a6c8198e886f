package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string

	HTTP        HTTPConfig
	LLM         LLMConfig
	Graph       GraphConfig
	Maintenance MaintenanceConfig
	TimeSeries  TimeSeriesConfig
	Workflow    WorkflowConfig
	Log         LogConfig
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type LLMConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

type GraphConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

type MaintenanceConfig struct {
	MCPURL string // empty disables the maintenance agent
}

type TimeSeriesConfig struct {
	UseReal bool
	MCPURL  string
}

// WorkflowConfig carries the per-node and whole-workflow deadlines.
type WorkflowConfig struct {
	GraphTimeout       time.Duration
	MaintenanceTimeout time.Duration
	TimeSeriesTimeout  time.Duration
	SynthesizerTimeout time.Duration
	WorkflowTimeout    time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	Output string
	File   string
}

func Load() (*Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		HTTP: HTTPConfig{
			Port:         getEnv("PORT", "8000"),
			ReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT_MS", 30*time.Second),
			WriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT_MS", 60*time.Second),
			IdleTimeout:  getDurationEnv("HTTP_IDLE_TIMEOUT_MS", 120*time.Second),
		},
		LLM: LLMConfig{
			APIKey:      os.Getenv("LLM_API_KEY"),
			Model:       getEnv("LLM_MODEL", "gemini-2.0-flash"),
			Temperature: 0.1,
			MaxTokens:   getIntEnv("LLM_MAX_TOKENS", 2000),
			Timeout:     getDurationEnv("LLM_TIMEOUT_MS", 30*time.Second),
			MaxRetries:  getIntEnv("LLM_MAX_RETRIES", 3),
			RetryDelay:  getDurationEnv("LLM_RETRY_DELAY_MS", 500*time.Millisecond),
		},
		Graph: GraphConfig{
			URI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
			Username: getEnv("NEO4J_USERNAME", "neo4j"),
			Password: getEnv("NEO4J_PASSWORD", "password"),
			Database: getEnv("NEO4J_DATABASE", "neo4j"),
		},
		Maintenance: MaintenanceConfig{
			MCPURL: os.Getenv("MAINTENANCE_MCP_URL"),
		},
		TimeSeries: TimeSeriesConfig{
			UseReal: getBoolEnv("TIMESERIES_USE_REAL", false),
			MCPURL:  getEnv("TIMESERIES_MCP_URL", "http://localhost:8002"),
		},
		Workflow: WorkflowConfig{
			GraphTimeout:       getDurationEnv("GRAPH_TIMEOUT_MS", 10*time.Second),
			MaintenanceTimeout: getDurationEnv("MAINTENANCE_TIMEOUT_MS", 15*time.Second),
			TimeSeriesTimeout:  getDurationEnv("TIMESERIES_TIMEOUT_MS", 10*time.Second),
			SynthesizerTimeout: getDurationEnv("SYNTHESIZER_TIMEOUT_MS", 20*time.Second),
			WorkflowTimeout:    getDurationEnv("WORKFLOW_TIMEOUT_MS", 45*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
			File:   getEnv("LOG_FILE", "logs/insight.log"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if cfg.Graph.URI == "" {
		return fmt.Errorf("NEO4J_URI is required")
	}
	if cfg.TimeSeries.UseReal && cfg.TimeSeries.MCPURL == "" {
		return fmt.Errorf("TIMESERIES_MCP_URL is required when TIMESERIES_USE_REAL is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getBoolEnv(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// Duration envs are plain millisecond counts.
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Millisecond
}
