package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"minerva/pkg/errors"
)

type Config struct {
	App           AppConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	AI            AIConfig
	Workflow      WorkflowConfig
	Modes         ModesConfig
	Metrics       MetricsConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"minerva"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"minerva"`
}

type AIConfig struct {
	OpenAIKey       string        `envconfig:"OPENAI_API_KEY"`
	GeminiKey       string        `envconfig:"GEMINI_API_KEY"`
	DefaultProvider string        `envconfig:"DEFAULT_AI_PROVIDER" default:"openai"`
	DefaultModel    string        `envconfig:"DEFAULT_AI_MODEL" default:"gpt-4o-mini"`
	DeepModel       string        `envconfig:"DEEP_AI_MODEL" default:"gpt-4o"`
	RequestTimeout  time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"120s"`
	RequestsPerMin  float64       `envconfig:"AI_REQUESTS_PER_MINUTE" default:"60"`
	RequestBurst    int           `envconfig:"AI_REQUEST_BURST" default:"6"`
}

// WorkflowConfig bounds the four-phase analysis pipeline.
type WorkflowConfig struct {
	DebateRounds     int           `envconfig:"WORKFLOW_DEBATE_ROUNDS" default:"1"`
	RiskRounds       int           `envconfig:"WORKFLOW_RISK_ROUNDS" default:"1"`
	PhaseTimeout     time.Duration `envconfig:"WORKFLOW_PHASE_TIMEOUT" default:"10m"`
	MaxCostPerRunUSD float64       `envconfig:"WORKFLOW_MAX_COST_PER_RUN_USD" default:"2.0"`
	RunSnapshotTTL   time.Duration `envconfig:"WORKFLOW_RUN_SNAPSHOT_TTL" default:"720h"`
}

// ModesConfig locates the per-phase agent role configuration documents.
type ModesConfig struct {
	ConfigDir  string `envconfig:"AGENT_CONFIG_DIR" default:"config/agents"`
	InstallDir string `envconfig:"AGENT_INSTALL_DIR" default:"install/default-config/agents"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9091"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables.
// It first tries to load a .env file (useful for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
