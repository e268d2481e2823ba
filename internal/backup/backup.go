package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup manager configuration.
type Config struct {
	S3         S3Config
	DBPath     string
	Passphrase string
	Interval   time.Duration
}

// Manager uploads encrypted database snapshots to S3-compatible storage.
// It stays disabled unless bucket, credentials, and passphrase are all set.
type Manager struct {
	cfg    Config
	db     *sql.DB
	client s3Client
	logger *slog.Logger
}

func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	m := &Manager{cfg: cfg, db: db, logger: logger}
	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether the manager is fully configured.
func (m *Manager) Enabled() bool {
	return m.client != nil
}

// Start runs interval backups until the context is canceled.
func (m *Manager) Start(ctx context.Context) {
	if !m.Enabled() {
		return
	}

	interval := m.cfg.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.RunOnce(ctx); err != nil {
				m.logger.Error("scheduled backup failed", "error", err)
			}
		}
	}
}

// RunOnce snapshots the database, encrypts it, and uploads it. The snapshot
// uses VACUUM INTO so the copy is consistent while the service keeps
// serving requests.
func (m *Manager) RunOnce(ctx context.Context) error {
	if !m.Enabled() {
		return fmt.Errorf("backup not configured")
	}

	timestamp := time.Now().UTC().Format("2006-01-02T150405Z")
	key := fmt.Sprintf("daybreak-%s.db.enc", timestamp)

	tmpDir := os.TempDir()
	dbCopy := filepath.Join(tmpDir, fmt.Sprintf("daybreak-snapshot-%s.db", timestamp))
	encFile := dbCopy + ".enc"
	defer os.Remove(dbCopy)
	defer os.Remove(encFile)

	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", dbCopy); err != nil {
		return fmt.Errorf("snapshot database: %w", err)
	}

	if err := EncryptFile(dbCopy, encFile, m.cfg.Passphrase); err != nil {
		return fmt.Errorf("encrypt snapshot: %w", err)
	}

	encData, err := os.Open(encFile)
	if err != nil {
		return fmt.Errorf("open encrypted snapshot: %w", err)
	}
	defer encData.Close()

	stat, err := encData.Stat()
	if err != nil {
		return fmt.Errorf("stat encrypted snapshot: %w", err)
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(key),
		Body:          encData,
		ContentLength: aws.Int64(stat.Size()),
	})
	if err != nil {
		return fmt.Errorf("upload to s3: %w", err)
	}

	m.logger.Info("backup uploaded", "key", key, "size", stat.Size())
	return nil
}
