package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full service configuration, loaded from DAYBREAK_*
// environment variables.
type Config struct {
	Port      string `env:"DAYBREAK_PORT" envDefault:"8080"`
	DBPath    string `env:"DAYBREAK_DB_PATH" envDefault:"daybreak.db"`
	LogLevel  string `env:"DAYBREAK_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"DAYBREAK_LOG_FORMAT" envDefault:"text"`

	// Outbound email (Postmark). Unset token means codes are logged instead
	// of emailed, for local development.
	PostmarkToken string `env:"DAYBREAK_POSTMARK_TOKEN"`
	EmailFrom     string `env:"DAYBREAK_EMAIL_FROM" envDefault:"hello@daybreak.example"`

	// News provider (newsdata.io).
	NewsAPIKey   string `env:"DAYBREAK_NEWS_API_KEY"`
	NewsLanguage string `env:"DAYBREAK_NEWS_LANGUAGE" envDefault:"en"`

	// How often expired sessions and codes are pruned.
	JanitorInterval time.Duration `env:"DAYBREAK_JANITOR_INTERVAL" envDefault:"10m"`

	Backup BackupConfig `envPrefix:"DAYBREAK_BACKUP_"`
}

// BackupConfig configures encrypted snapshots to S3-compatible storage.
// Backups stay disabled unless bucket, keys, and passphrase are all set.
type BackupConfig struct {
	Endpoint   string        `env:"S3_ENDPOINT"`
	Bucket     string        `env:"S3_BUCKET"`
	Region     string        `env:"S3_REGION" envDefault:"auto"`
	AccessKey  string        `env:"S3_ACCESS_KEY"`
	SecretKey  string        `env:"S3_SECRET_KEY"`
	Passphrase string        `env:"PASSPHRASE"`
	Interval   time.Duration `env:"INTERVAL" envDefault:"24h"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
