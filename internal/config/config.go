// Package config загружает конфигурацию сервиса из окружения и .env
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит конфигурацию сервиса
type Config struct {
	ServerAddr string
	LogLevel   string
	LogFormat  string

	ModelPath      string
	BlockThreshold float64
	ShapThreshold  float64

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers        []string
	KafkaIncidentsTopic string

	RateLimitRPS   float64
	RateLimitBurst int

	RetrainStepDuration time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load читает .env (если есть) и переменные окружения
func Load() (Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := Config{
		ServerAddr:          getEnv("SERVER_ADDR", ":8000"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
		ModelPath:           getEnv("MODEL_PATH", ""),
		BlockThreshold:      getEnvFloat("BLOCK_THRESHOLD", 0.85),
		ShapThreshold:       getEnvFloat("SHAP_THRESHOLD", 0.5),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		KafkaBrokers:        splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaIncidentsTopic: getEnv("KAFKA_INCIDENTS_TOPIC", "fraud_incidents"),
		RateLimitRPS:        getEnvFloat("RATE_LIMIT_RPS", 100),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", 200),
		RetrainStepDuration: getEnvDuration("RETRAIN_STEP_DURATION", 2*time.Second),
		ReadTimeout:         getEnvDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:        getEnvDuration("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:         getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:     getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет значения, которые нельзя исправить молча
func (c Config) Validate() error {
	if c.BlockThreshold < 0 || c.BlockThreshold > 1 {
		return fmt.Errorf("BLOCK_THRESHOLD must be between 0.0 and 1.0, got %v", c.BlockThreshold)
	}
	if c.ShapThreshold < 0 || c.ShapThreshold > 1 {
		return fmt.Errorf("SHAP_THRESHOLD must be between 0.0 and 1.0, got %v", c.ShapThreshold)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive, got rps=%v burst=%d", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.RetrainStepDuration <= 0 {
		return fmt.Errorf("RETRAIN_STEP_DURATION must be positive, got %s", c.RetrainStepDuration)
	}
	return nil
}

// RedisEnabled сообщает, задан ли адрес Redis
func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// KafkaEnabled сообщает, заданы ли брокеры Kafka
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// getEnv получает переменную окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленную переменную окружения
func getEnvInt(key string, defaultValue int) int {
	if value := getEnv(key, ""); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := getEnv(key, ""); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := getEnv(key, ""); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
