package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Storage selects the persistence backend.
type Storage string

const (
	StorageMemory   Storage = "memory"
	StoragePostgres Storage = "postgres"
)

// SMTPConfig configures the outbound mail transport. Host and From empty
// means mail is disabled; notification sends then fail soft with a warning.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// CronConfig holds the schedules for background jobs, in cron spec format.
type CronConfig struct {
	// PictureReminder sends upload reminders to members whose deadline has
	// passed without a picture.
	PictureReminder string
	// PendingDigest mails staff a digest of registrations awaiting review.
	PendingDigest string
}

type Config struct {
	Port    int
	Storage Storage
	// PostgresDSN is required when Storage is postgres.
	PostgresDSN string

	SMTP SMTPConfig
	Cron CronConfig

	// AllowRejectApproved permits revoking an already-approved member.
	AllowRejectApproved bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present (local development).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:    8080,
		Storage: StorageMemory,
		SMTP: SMTPConfig{
			Port: 587,
		},
		Cron: CronConfig{
			PictureReminder: "0 9 * * *",
			PendingDigest:   "0 8 * * 1",
		},
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = p
	}

	switch v := os.Getenv("STORAGE_BACKEND"); v {
	case "", "memory":
		cfg.Storage = StorageMemory
	case "postgres":
		cfg.Storage = StoragePostgres
		cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
		if cfg.PostgresDSN == "" {
			return Config{}, fmt.Errorf("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_BACKEND %q", v)
	}

	cfg.SMTP.Host = os.Getenv("SMTP_HOST")
	if v := os.Getenv("SMTP_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		cfg.SMTP.Port = p
	}
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.From = os.Getenv("SMTP_FROM")

	if v := os.Getenv("CRON_PICTURE_REMINDER"); v != "" {
		cfg.Cron.PictureReminder = v
	}
	if v := os.Getenv("CRON_PENDING_DIGEST"); v != "" {
		cfg.Cron.PendingDigest = v
	}

	if v := os.Getenv("ALLOW_REJECT_APPROVED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ALLOW_REJECT_APPROVED %q: %w", v, err)
		}
		cfg.AllowRejectApproved = b
	}

	return cfg, nil
}
