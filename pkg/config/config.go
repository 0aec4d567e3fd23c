// Package config reads service settings from the environment, after loading
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
)

// Config holds the settings shared by the HTTP server and the lambdas.
type Config struct {
	StorageBackend string

	AccountsTable      string
	TransactionsTable  string
	TournamentsTable   string
	RegistrationsTable string

	SQSQueueURL string
	HTTPPort    string
	LogLevel    slog.Level

	// Charges younger than ReconcileAfter are left to the request that made them.
	ReconcileAfter    time.Duration
	ReconcileLookback time.Duration
	// ReconcileInterval enables the in-process reconciliation loop when positive.
	ReconcileInterval time.Duration
}

// Load reads .env if present, then the environment.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		StorageBackend:     strings.ToLower(getEnv("STORAGE_BACKEND", BackendDynamoDB)),
		AccountsTable:      getEnv("DYNAMODB_ACCOUNTS_TABLE_NAME", ""),
		TransactionsTable:  getEnv("DYNAMODB_TRANSACTIONS_TABLE_NAME", ""),
		TournamentsTable:   getEnv("DYNAMODB_TOURNAMENTS_TABLE_NAME", ""),
		RegistrationsTable: getEnv("DYNAMODB_REGISTRATIONS_TABLE_NAME", ""),
		SQSQueueURL:        getEnv("SQS_QUEUE_URL", ""),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileAfter, err = getDuration("RECONCILE_AFTER", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileLookback, err = getDuration("RECONCILE_LOOKBACK", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileInterval, err = getDuration("RECONCILE_INTERVAL", 0); err != nil {
		return Config{}, err
	}

	switch cfg.StorageBackend {
	case BackendMemory, BackendDynamoDB:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	if cfg.ReconcileLookback <= cfg.ReconcileAfter {
		return Config{}, errors.New("RECONCILE_LOOKBACK must be longer than RECONCILE_AFTER")
	}
	return cfg, nil
}

// RequireTables fails unless every DynamoDB table name is set.
func (c Config) RequireTables() error {
	var missing []string
	for name, v := range map[string]string{
		"DYNAMODB_ACCOUNTS_TABLE_NAME":      c.AccountsTable,
		"DYNAMODB_TRANSACTIONS_TABLE_NAME":  c.TransactionsTable,
		"DYNAMODB_TOURNAMENTS_TABLE_NAME":   c.TournamentsTable,
		"DYNAMODB_REGISTRATIONS_TABLE_NAME": c.RegistrationsTable,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getEnv returns the environment variable or def when unset.
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
