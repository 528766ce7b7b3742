// Package config loads service configuration from a yaml file and the
// environment, environment winning.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	Address     string        `yaml:"address" env:"ADDRESS" env-default:":8080"`
	DatabaseDSN string        `yaml:"database_dsn" env:"DATABASE_DSN" env-required:"true"`
	JWTKey      string        `yaml:"jwt_key" env:"JWT_KEY" env-required:"true"`
	AccessTTL   time.Duration `yaml:"access_ttl" env:"ACCESS_TTL" env-default:"24h"`

	CORSOrigins string `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"*"`

	KafkaBrokers []string `yaml:"kafka_brokers" env:"KAFKA_BROKERS"`
	KafkaTopic   string   `yaml:"kafka_topic" env:"KAFKA_TOPIC" env-default:"task-events"`

	AnthropicKey string `yaml:"anthropic_key" env:"ANTHROPIC_API_KEY"`
}

// Load reads an optional .env file, then the yaml file named by CONFIG_PATH
// (if any), then the environment on top.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return &cfg, nil
}
