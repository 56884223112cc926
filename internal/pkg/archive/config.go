package archive

import (
	"fmt"
	"time"

	appconfig "github.com/ManuelReschke/CoursePay/internal/pkg/config"
)

// Config holds event archive configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	AppEnv          string
}

// ConfigFrom picks the archive settings out of the application config.
func ConfigFrom(cfg *appconfig.Config) *Config {
	return &Config{
		AccessKeyID:     cfg.ArchiveAccessKey,
		SecretAccessKey: cfg.ArchiveSecretKey,
		Region:          cfg.ArchiveRegion,
		BucketName:      cfg.ArchiveBucket,
		EndpointURL:     cfg.ArchiveEndpoint,
		AppEnv:          cfg.AppEnv,
	}
}

// IsEnabled returns true if a bucket is configured
func (c *Config) IsEnabled() bool {
	return c.BucketName != ""
}

// ObjectKey returns the object key for an event: webhook-events/YYYY/MM/DD/<event_id>.json
func ObjectKey(eventID string, receivedAt time.Time) string {
	t := receivedAt.UTC()
	return fmt.Sprintf("webhook-events/%04d/%02d/%02d/%s.json", t.Year(), int(t.Month()), t.Day(), eventID)
}
