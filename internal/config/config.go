package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Providers ProviderConfig
	Broker    BrokerConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret string
}

// ProviderConfig holds the process-wide default credential of each provider.
// A provider without one is never activated.
type ProviderConfig struct {
	OpenAIKey     string
	OpenAIBaseURL string

	AnthropicKey        string
	AnthropicBaseURL    string
	AnthropicAPIVersion string

	AzureKey        string
	AzureEndpoint   string
	AzureAPIVersion string

	HTTPTimeout time.Duration
}

type BrokerConfig struct {
	DefaultProvider string
	DefaultModel    string
	ExchangeTimeout time.Duration
	AllowAnonymous  bool
	UsageTopic      string
	FactCacheTTL    time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Providers: ProviderConfig{
			OpenAIKey:           getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
			AnthropicKey:        getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicBaseURL:    getEnv("ANTHROPIC_BASE_URL", ""),
			AnthropicAPIVersion: getEnv("ANTHROPIC_API_VERSION", ""),
			AzureKey:            getEnv("AZURE_OPENAI_API_KEY", getEnv("AZURE_OPENAI_KEY", "")),
			AzureEndpoint:       getEnv("AZURE_OPENAI_ENDPOINT", ""),
			AzureAPIVersion:     getEnv("AZURE_OPENAI_API_VERSION", ""),
			HTTPTimeout:         getEnvAsDuration("PROVIDER_HTTP_TIMEOUT", 0),
		},
		Broker: BrokerConfig{
			DefaultProvider: getEnv("BROKER_DEFAULT_PROVIDER", "openAi"),
			DefaultModel:    getEnv("BROKER_DEFAULT_MODEL", "gpt-4"),
			ExchangeTimeout: getEnvAsDuration("BROKER_EXCHANGE_TIMEOUT", 120*time.Second),
			AllowAnonymous:  getEnvAsBool("BROKER_ALLOW_ANONYMOUS", true),
			UsageTopic:      getEnv("USAGE_TOPIC_NAME", "USAGE_INCREMENT"),
			FactCacheTTL:    getEnvAsDuration("FACT_CACHE_TTL", 5*time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds := getEnvAsInt(key, -1); seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
