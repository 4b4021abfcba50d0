package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	LogLevel string
	Env      string
	DB       DBConfig
	JWT      JWTConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Owner    OwnerSeed
}

// DBConfig holds the database configuration
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds access token signing settings
type JWTConfig struct {
	Secret    string
	AccessTTL time.Duration
}

// KafkaConfig holds the optional order event publishing settings.
// Publishing is disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers     []string
	OrdersTopic string
}

// RedisConfig holds the optional search cache settings.
// The cache is disabled when Addr is empty.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// OwnerSeed is the store owner account created on first migration.
type OwnerSeed struct {
	Forename string
	Surname  string
	Email    string
	Password string
}

// getEnv retrieves the value of an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

// Load reads the configuration from the environment (and an optional .env
// file) and returns a Config struct.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	ttlMinutes, err := strconv.Atoi(getEnv("JWT_ACCESS_TTL_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TTL_MINUTES: %w", err)
	}

	var brokers []string
	if raw := getEnv("KAFKA_BROKERS", ""); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	return &Config{
		Port:     port,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Env:      getEnv("APP_ENV", "development"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "deliveryshop"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET_KEY", "JWT_SECRET_KEY"),
			AccessTTL: time.Duration(ttlMinutes) * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:     brokers,
			OrdersTopic: getEnv("KAFKA_ORDERS_TOPIC", "order-events"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Owner: OwnerSeed{
			Forename: getEnv("OWNER_FORENAME", "Scrooge"),
			Surname:  getEnv("OWNER_SURNAME", "McDuck"),
			Email:    getEnv("OWNER_EMAIL", "onlymoney@gmail.com"),
			Password: getEnv("OWNER_PASSWORD", "evenmoremoney"),
		},
	}, nil
}

// GetDBConnString returns the database connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}

// KafkaEnabled reports whether order event publishing is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

// RedisEnabled reports whether the search cache is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
