package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the process configuration, read from the environment and an optional .env file.
type Config struct {
	AppPort     string
	AppEnv      string
	ServiceName string

	DatabaseDriver string
	DatabaseDSN    string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string
	AllowedCountries    []string
	SuccessURL          string
	CancelURL           string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	RabbitMQURL     string
	RedisAddr       string
	KafkaBrokers    []string
	KafkaOrderTopic string

	FulfillmentMaxAttempts   int
	FulfillmentRetryBase     time.Duration
	FulfillmentRelayInterval time.Duration
	FulfillmentWorkers       int

	JWTSecret     string
	AdminUsername string
	AdminEmail    string
	AdminPassword string

	SeedCatalog bool
}

// Load reads configuration using v. When envFile exists it is merged below the environment.
func Load(v *viper.Viper, envFile string) (Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}

	cfg := Config{
		AppPort:     v.GetString("APP_PORT"),
		AppEnv:      v.GetString("APP_ENV"),
		ServiceName: v.GetString("SERVICE_NAME"),

		DatabaseDriver: v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),

		StripeSecretKey:     v.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		Currency:            strings.ToLower(v.GetString("CHECKOUT_CURRENCY")),
		AllowedCountries:    upper(splitCSV(v.GetString("CHECKOUT_ALLOWED_COUNTRIES"))),
		SuccessURL:          v.GetString("CHECKOUT_SUCCESS_URL"),
		CancelURL:           v.GetString("CHECKOUT_CANCEL_URL"),

		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUsername: v.GetString("SMTP_USERNAME"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		MailFrom:     v.GetString("MAIL_FROM"),

		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		KafkaBrokers:    splitCSV(v.GetString("KAFKA_BROKERS")),
		KafkaOrderTopic: v.GetString("KAFKA_ORDER_TOPIC"),

		FulfillmentMaxAttempts:   v.GetInt("FULFILLMENT_MAX_ATTEMPTS"),
		FulfillmentRetryBase:     v.GetDuration("FULFILLMENT_RETRY_BASE"),
		FulfillmentRelayInterval: v.GetDuration("FULFILLMENT_RELAY_INTERVAL"),
		FulfillmentWorkers:       v.GetInt("FULFILLMENT_WORKERS"),

		JWTSecret:     v.GetString("JWT_SECRET"),
		AdminUsername: v.GetString("ADMIN_USERNAME"),
		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),

		SeedCatalog: v.GetBool("SEED_CATALOG"),
	}
	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("SERVICE_NAME", "cybertronic")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:cybertronic.db?cache=shared")
	v.SetDefault("CHECKOUT_CURRENCY", "usd")
	v.SetDefault("CHECKOUT_ALLOWED_COUNTRIES", "US,CA,GB")
	v.SetDefault("CHECKOUT_SUCCESS_URL", "http://localhost:3000/success?session_id={CHECKOUT_SESSION_ID}")
	v.SetDefault("CHECKOUT_CANCEL_URL", "http://localhost:3000/cart")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM", "Cybertronic <orders@cybertronic.shop>")
	v.SetDefault("KAFKA_ORDER_TOPIC", "orders.paid")
	v.SetDefault("FULFILLMENT_MAX_ATTEMPTS", 8)
	v.SetDefault("FULFILLMENT_RETRY_BASE", 5*time.Second)
	v.SetDefault("FULFILLMENT_RELAY_INTERVAL", 10*time.Second)
	v.SetDefault("FULFILLMENT_WORKERS", 2)
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("SEED_CATALOG", false)
}

// Validate reports missing secrets and inconsistent settings.
func (c Config) Validate() error {
	var errs []error
	if c.StripeSecretKey == "" {
		errs = append(errs, errors.New("STRIPE_SECRET_KEY is required"))
	}
	if c.StripeWebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required"))
	}
	if c.DatabaseDriver != "postgres" && c.DatabaseDriver != "sqlite" {
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver))
	}
	if len(c.AllowedCountries) == 0 {
		errs = append(errs, errors.New("CHECKOUT_ALLOWED_COUNTRIES must list at least one country"))
	}
	if c.FulfillmentMaxAttempts < 1 {
		errs = append(errs, errors.New("FULFILLMENT_MAX_ATTEMPTS must be positive"))
	}
	if c.AdminUsername != "" && len(c.AdminPassword) < 6 {
		errs = append(errs, errors.New("ADMIN_PASSWORD must be at least 6 characters"))
	}
	return errors.Join(errs...)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func upper(in []string) []string {
	for i := range in {
		in[i] = strings.ToUpper(in[i])
	}
	return in
}
