package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
)

type Config struct {
	API       APIConfig
	Queue     QueueConfig
	Worker    WorkerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Webhook   WebhookConfig
	Telemetry TelemetryConfig
}

type APIConfig struct {
	Addr              string
	PresignTTL        time.Duration
	RateLimitCapacity int
	RateLimitWindow   time.Duration
	UserIDHeader      string
}

type QueueConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Name          string
}

func (q QueueConfig) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     q.RedisAddr,
		Password: q.RedisPassword,
		DB:       q.RedisDB,
	}
}

type WorkerConfig struct {
	Concurrency       int
	MaxActiveCaptures int
	MetricsAddr       string
	LocalOutputDir    string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type DatabaseConfig struct {
	DSN string
}

type WebhookConfig struct {
	SigningSecret string
	Timeout       time.Duration
	MaxAttempts   int
}

type TelemetryConfig struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

func Load() Config {
	defaultCaptureSlots := max(1, runtime.NumCPU()/2)

	return Config{
		API: APIConfig{
			Addr:              env("POLARIZE_API_ADDR", ":8080"),
			PresignTTL:        envDuration("POLARIZE_PRESIGN_TTL", 15*time.Minute),
			RateLimitCapacity: envInt("POLARIZE_RATE_LIMIT_CAPACITY", 30),
			RateLimitWindow:   envDuration("POLARIZE_RATE_LIMIT_WINDOW", time.Minute),
			UserIDHeader:      env("POLARIZE_USER_ID_HEADER", "X-Polarize-User"),
		},
		Queue: QueueConfig{
			RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
			RedisPassword: env("REDIS_PASSWORD", ""),
			RedisDB:       envInt("REDIS_DB", 0),
			Name:          env("POLARIZE_QUEUE", "default"),
		},
		Worker: WorkerConfig{
			Concurrency:       envInt("WORKER_CONCURRENCY", max(2, runtime.NumCPU())),
			MaxActiveCaptures: envInt("WORKER_MAX_ACTIVE_CAPTURES", defaultCaptureSlots),
			MetricsAddr:       env("WORKER_METRICS_ADDR", ":9090"),
			LocalOutputDir:    env("WORKER_LOCAL_OUTPUT_DIR", "./.polarize-gallery"),
		},
		Storage: StorageConfig{
			Endpoint:  env("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: env("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: env("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    env("MINIO_BUCKET", "polarize-captures"),
			UseSSL:    envBool("MINIO_USE_SSL", false),
		},
		Database: DatabaseConfig{
			DSN: env("POSTGRES_DSN", ""),
		},
		Webhook: WebhookConfig{
			SigningSecret: env("POLARIZE_WEBHOOK_SECRET", ""),
			Timeout:       envDuration("POLARIZE_WEBHOOK_TIMEOUT", 10*time.Second),
			MaxAttempts:   envInt("POLARIZE_WEBHOOK_MAX_ATTEMPTS", 3),
		},
		Telemetry: TelemetryConfig{
			Exporter:     env("OTEL_TRACES_EXPORTER", "none"),
			OTLPEndpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
