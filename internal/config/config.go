package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Staging  StagingConfig
	Tracing  TracingConfig
	Keys     APIKeys
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	UploadDir          string
}

type DatabaseConfig struct {
	Connection      string
	LogLevel        string // silent, error, warn or info
	SlowThreshold   time.Duration
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	ServiceName string
	SampleRatio float64
}

type StagingConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	ImageBackend    string // "memory" or "redis"
	ParserURL       string
}

type APIKeys struct {
	JWTSecret            string
	SessionConsumedTopic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	environment := getEnv("GO_ENV", "development")
	dbLogLevel := "info"
	if environment == "production" {
		dbLogLevel = "warn"
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        environment,
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		},
		Database: DatabaseConfig{
			Connection:      getEnv("DB_CONNECTION_STRING", ""),
			LogLevel:        getEnv("DB_LOG_LEVEL", dbLogLevel),
			SlowThreshold:   getEnvAsDuration("DB_SLOW_THRESHOLD", time.Second),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		Staging: StagingConfig{
			TTL:             getEnvAsDuration("STAGING_TTL", 30*time.Minute),
			CleanupInterval: getEnvAsDuration("STAGING_CLEANUP_INTERVAL", 5*time.Minute),
			ImageBackend:    getEnv("STAGING_IMAGE_BACKEND", "memory"),
			ParserURL:       getEnv("INGESTION_PARSER_URL", "http://localhost:8090"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			Insecure:    getEnv("OTEL_EXPORTER_OTLP_INSECURE", "true") == "true",
			ServiceName: getEnv("OTEL_SERVICE_NAME", "qbank-admin-api"),
			SampleRatio: getEnvAsFloat("OTEL_TRACES_SAMPLER_ARG", 1),
		},
		Keys: APIKeys{
			JWTSecret:            getEnv("JWT_SECRET", ""),
			SessionConsumedTopic: getEnv("SESSION_CONSUMED_TOPIC_NAME", "STAGING_SESSION_CONSUMED"),
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

// getEnvAsFloat falls back when the value is not a number in [0, 1].
func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil && value >= 0 && value <= 1 {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("30m") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if d, err := time.ParseDuration(strValue); err == nil && d > 0 {
		return d
	}
	if secs := getEnvAsInt(key, 0); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
