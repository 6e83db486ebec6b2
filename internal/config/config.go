package config

import (
	"fmt"

	env "github.com/Netflix/go-env"
)

type Config struct {
	ServerPort string `env:"SERVER_PORT,default=8080"`

	DBHost     string `env:"DB_HOST,default=localhost"`
	DBPort     string `env:"DB_PORT,default=5432"`
	DBUser     string `env:"DB_USER,default=relay"`
	DBPassword string `env:"DB_PASSWORD,default=relay_dev_password"`
	DBName     string `env:"DB_NAME,default=relay"`

	JWTSecret string `env:"JWT_SECRET,default=dev-secret-change-me"`

	// AutoJoinLimit caps how many conversations a fresh connection is
	// subscribed to on connect.
	AutoJoinLimit    int `env:"AUTO_JOIN_LIMIT,default=200"`
	MaxMessageLength int `env:"MAX_MESSAGE_LENGTH,default=2000"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}
	return &cfg, nil
}
