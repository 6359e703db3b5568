package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// AMQP event bridge (optional; empty URL disables the bridge)
	AMQPURL      string
	AMQPExchange string

	// Auth
	JWTSecret            string
	OperatorPasswordHash string
	AccessTokenTTL       time.Duration

	// Pricing (decimal strings, converted to points by the pricing service)
	StandardPrice string
	PriorityPrice string
	PointsPerUnit string

	// Play history
	HistoryDBPath string

	// Timeouts
	StoreTimeout time.Duration

	// Monitoring
	EnableMetrics   bool
	MetricsPort     string
	MetricsInterval time.Duration
}

func LoadConfig() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// AMQP
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "venue.events"),

		// Auth
		JWTSecret:            getEnv("JWT_SECRET", "dev-secret-change-me"),
		OperatorPasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
		AccessTokenTTL:       getEnvAsDuration("ACCESS_TOKEN_TTL", "12h"),

		// Pricing
		StandardPrice: getEnv("STANDARD_PRICE", "1.00"),
		PriorityPrice: getEnv("PRIORITY_PRICE", "2.50"),
		PointsPerUnit: getEnv("POINTS_PER_UNIT", "10"),

		// History
		HistoryDBPath: getEnv("HISTORY_DB_PATH", "data/history.db"),

		// Timeouts
		StoreTimeout: getEnvAsDuration("STORE_TIMEOUT", "2s"),

		// Monitoring
		EnableMetrics:   getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		MetricsInterval: getEnvAsDuration("METRICS_INTERVAL", "30s"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
