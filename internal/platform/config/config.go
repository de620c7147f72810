package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-wide configuration. It is built once in main and
// passed into constructors; write paths never read the environment.
type Config struct {
	Addr string

	// PostgresDSN addresses the metadata store. Empty means the server runs
	// on in-memory stores (local development, tests).
	PostgresDSN string

	// BlobRoot is the object store root directory; BlobContainer is the
	// namespace registrations write into.
	BlobRoot      string
	BlobContainer string

	// RedisURL enables the idempotency replay guard when set.
	RedisURL string
	Redis    RedisConfig

	// KafkaBrokers enables the Kafka audit sink when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// JWTSigningKey enables the bearer-token gate on /api routes when set.
	JWTSigningKey string

	// IdempotencyTTL bounds how long a replayed Idempotency-Key maps to its
	// original row key.
	IdempotencyTTL time.Duration
}

// RedisConfig carries go-redis tuning knobs.
type RedisConfig struct {
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:          getenv("CAREERSHOT_ADDR", ":8080"),
		PostgresDSN:   os.Getenv("CAREERSHOT_POSTGRES_DSN"),
		BlobRoot:      getenv("CAREERSHOT_BLOB_ROOT", "data/blobs"),
		BlobContainer: getenv("CAREERSHOT_BLOB_CONTAINER", "media-dev"),
		RedisURL:      os.Getenv("CAREERSHOT_REDIS_URL"),
		KafkaTopic:    getenv("CAREERSHOT_KAFKA_TOPIC", "careershot.registrations"),
		JWTSigningKey: os.Getenv("CAREERSHOT_JWT_SIGNING_KEY"),
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		IdempotencyTTL: 24 * time.Hour,
	}

	if brokers := os.Getenv("CAREERSHOT_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
