package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config values are loaded from the environment (and a .env file when present).
// Defaults are for development only, never put a production value here.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:4444"`
	HttpPort int    `env:"HTTP_PORT" envDefault:"4444"`
	Db       struct {
		Dsn         string `env:"DB_DSN" envDefault:"user:pass@localhost:5432/db"`
		Automigrate bool   `env:"DB_AUTOMIGRATE" envDefault:"true"`
	}
	Jwt struct {
		SecretKey string `env:"JWT_SECRET_KEY" envDefault:"ajf5nx3qmp6zquevllxocxqvyz42ypuo"`
	}
	// server errors won't be sent via email if NOTIFICATIONS_EMAIL is empty
	Notifications struct {
		Email string `env:"NOTIFICATIONS_EMAIL"`
	}
	Smtp struct {
		Host     string `env:"SMTP_HOST" envDefault:"example.smtp.host"`
		Port     int    `env:"SMTP_PORT" envDefault:"25"`
		Username string `env:"SMTP_USERNAME" envDefault:"example_username"`
		Password string `env:"SMTP_PASSWORD" envDefault:"pa55word"`
		From     string `env:"SMTP_FROM" envDefault:"Splitsy <no_reply@splitsy.app>"`
	}
	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}
	KafkaServers string `env:"KAFKA_SERVERS" envDefault:"localhost:9092"`
	FileUploader struct {
		CloudName string `env:"CLOUDINARY_CLOUD_NAME"`
		ApiKey    string `env:"CLOUDINARY_API_KEY"`
		ApiSecret string `env:"CLOUDINARY_API_SECRET"`
	}
	Stripe struct {
		SecretKey     string `env:"STRIPE_SECRET_KEY"`
		WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	}
	Twilio struct {
		AccountSid string `env:"TWILIO_ACCOUNT_SID"`
		AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
		FromNumber string `env:"TWILIO_FROM_NUMBER"`
	}
	// base64 encoded 32 byte key used to seal SSN and ID numbers
	Vault struct {
		Key string `env:"VAULT_KEY" envDefault:"c3BsaXRzeS1kZXZlbG9wbWVudC1rZXktMzJieXRlcyE="`
	}
	PayLink struct {
		SecretKey string        `env:"PAYLINK_SECRET_KEY" envDefault:"n4w8q2kz7yv3m5x1c6b9p0l2j4h8g6fd"`
		TTL       time.Duration `env:"PAYLINK_TTL" envDefault:"720h"`
	}
	PlatformAdminEmail string `env:"PLATFORM_ADMIN_EMAIL"`
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads the .env file (if any) and parses the environment into a Config.
// A missing .env file is not an error, the environment may be set by the host.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}
