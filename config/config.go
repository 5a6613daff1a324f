package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DevMode       bool   `env:"DEV_MODE" env-default:"false"`
	HostPort      string `env:"HOST_PORT" env-default:"8080"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN" env-default:"*"`
	LogLevel      string `env:"LOG_LEVEL" env-default:"info"`

	DynamoDB DynamoDBConfig
	SQS      SQSConfig
	Redis    RedisConfig

	RoomRetention         time.Duration `env:"ROOM_RETENTION" env-default:"720h"`
	ActivityFlushInterval time.Duration `env:"ACTIVITY_FLUSH_INTERVAL" env-default:"2s"`
	ShutdownTimeout       time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type DynamoDBConfig struct {
	Endpoint string `env:"DYNAMODB_ENDPOINT"`
	Table    string `env:"DYNAMODB_TABLE" env-default:"Whiteboard"`
}

type SQSConfig struct {
	Endpoint          string `env:"SQS_ENDPOINT"`
	RoomSessionsQueue string `env:"ROOM_SESSIONS_QUEUE" env-default:"RoomSessionsEndedQueue"`
}

type RedisConfig struct {
	Endpoint string `env:"REDIS_ENDPOINT" env-default:"localhost:6379"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	if c.RoomRetention <= 0 {
		return fmt.Errorf("ROOM_RETENTION must be positive")
	}
	if c.ActivityFlushInterval <= 0 {
		return fmt.Errorf("ACTIVITY_FLUSH_INTERVAL must be positive")
	}
	return nil
}

// SetupLogger applies the configured level. Dev mode logs text, everything
// else JSON.
func (c *Config) SetupLogger() {
	if c.DevMode {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}
	level, _ := logrus.ParseLevel(c.LogLevel)
	logrus.SetLevel(level)
}
