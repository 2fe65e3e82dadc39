// Package config loads service configuration from .env and environment.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for both server and worker binaries.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Sales    SalesConfig
	Receipts ReceiptsConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// SalesConfig tunes the sale transaction engine.
type SalesConfig struct {
	// TaxRate is the sales tax rate applied after discount (0.18 = 18% IGV).
	TaxRate float64
	// NumberAttempts bounds document number allocation retries.
	NumberAttempts int
	// NumberRetryDelay is the pause between allocation attempts.
	NumberRetryDelay time.Duration
	// TxAttempts bounds serializable transaction re-runs.
	TxAttempts int
}

type ReceiptsConfig struct {
	DispatchTimeout time.Duration
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	FromName        string
	FromEmail       string
}

type WorkerConfig struct {
	RelayInterval   time.Duration
	RelayBatchSize  int
	ClosureSchedule string // cron spec for the daily cash-closure sweep
}

// DSN builds the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// Load reads configuration from .env (if present) and the environment.
func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("config: .env not found, using environment variables: %v", err)
	}

	viper.SetDefault("APP_NAME", "minimarket-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "minimarket")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 25)
	viper.SetDefault("DB_MIN_CONNS", 5)
	viper.SetDefault("SALES_TAX_RATE", 0.18)
	viper.SetDefault("SALES_NUMBER_ATTEMPTS", 5)
	viper.SetDefault("SALES_NUMBER_RETRY_DELAY", "50ms")
	viper.SetDefault("SALES_TX_ATTEMPTS", 3)
	viper.SetDefault("RECEIPT_DISPATCH_TIMEOUT", "30s")
	viper.SetDefault("SMTP_HOST", "localhost")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("SMTP_FROM_NAME", "Minimarket Camucha")
	viper.SetDefault("SMTP_FROM_EMAIL", "ventas@camucha.pe")
	viper.SetDefault("WORKER_RELAY_INTERVAL", "5s")
	viper.SetDefault("WORKER_RELAY_BATCH_SIZE", 50)
	viper.SetDefault("WORKER_CLOSURE_SCHEDULE", "0 23 * * *")

	return &Config{
		App: AppConfig{
			Name:     viper.GetString("APP_NAME"),
			Env:      viper.GetString("APP_ENV"),
			Port:     viper.GetString("APP_PORT"),
			LogLevel: viper.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
			MinConns: viper.GetInt32("DB_MIN_CONNS"),
		},
		Sales: SalesConfig{
			TaxRate:          viper.GetFloat64("SALES_TAX_RATE"),
			NumberAttempts:   viper.GetInt("SALES_NUMBER_ATTEMPTS"),
			NumberRetryDelay: viper.GetDuration("SALES_NUMBER_RETRY_DELAY"),
			TxAttempts:       viper.GetInt("SALES_TX_ATTEMPTS"),
		},
		Receipts: ReceiptsConfig{
			DispatchTimeout: viper.GetDuration("RECEIPT_DISPATCH_TIMEOUT"),
			SMTPHost:        viper.GetString("SMTP_HOST"),
			SMTPPort:        viper.GetInt("SMTP_PORT"),
			SMTPUsername:    viper.GetString("SMTP_USERNAME"),
			SMTPPassword:    viper.GetString("SMTP_PASSWORD"),
			FromName:        viper.GetString("SMTP_FROM_NAME"),
			FromEmail:       viper.GetString("SMTP_FROM_EMAIL"),
		},
		Worker: WorkerConfig{
			RelayInterval:   viper.GetDuration("WORKER_RELAY_INTERVAL"),
			RelayBatchSize:  viper.GetInt("WORKER_RELAY_BATCH_SIZE"),
			ClosureSchedule: viper.GetString("WORKER_CLOSURE_SCHEDULE"),
		},
	}
}
