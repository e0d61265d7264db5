package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerPort      string        `envconfig:"SERVER_PORT" default:"8082"`
	Env             string        `envconfig:"ENV" default:"development"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`

	// DB
	DBHost         string `envconfig:"DB_HOST" default:"localhost"`
	DBPort         string `envconfig:"DB_PORT" default:"5432"`
	DBUser         string `envconfig:"DB_USER" default:"postgres"`
	DBPassword     string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName         string `envconfig:"DB_NAME" default:"stay_booking_db"`
	DBSSLMode      string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`

	// RabbitMQ; empty disables publishing and the re-sync consumer.
	RabbitURL      string `envconfig:"RABBIT_URL"`
	NotifyExchange string `envconfig:"NOTIFY_EXCHANGE" default:"booking.exchange"`
	ResyncQueue    string `envconfig:"RESYNC_QUEUE" default:"stay-booking.payment-resync"`

	// Redis; empty disables the seen-delivery cache.
	RedisAddr       string        `envconfig:"REDIS_ADDR"`
	RedisPassword   string        `envconfig:"REDIS_PASSWORD"`
	RedisDB         int           `envconfig:"REDIS_DB" default:"0"`
	SeenDeliveryTTL time.Duration `envconfig:"SEEN_DELIVERY_TTL" default:"72h"`

	// PortOne
	PortOneAPIBase   string        `envconfig:"PORTONE_API_BASE" default:"https://api.portone.io"`
	PortOneAPISecret string        `envconfig:"PORTONE_API_SECRET" required:"true"`
	PortOneTimeout   time.Duration `envconfig:"PORTONE_TIMEOUT" default:"10s"`
	PortOneRPS       float64       `envconfig:"PORTONE_RPS" default:"20"`

	WebhookSecret    string        `envconfig:"WEBHOOK_SECRET" required:"true"`
	WebhookTolerance time.Duration `envconfig:"WEBHOOK_TOLERANCE" default:"5m"`

	CancellationLeadDays int `envconfig:"CANCELLATION_LEAD_DAYS" default:"5"`

	// AdminToken protects /api/v1/admin; empty leaves the admin routes unmounted.
	AdminToken string `envconfig:"ADMIN_TOKEN"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}
