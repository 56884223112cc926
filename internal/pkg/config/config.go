package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CoursePay/internal/pkg/env"
)

// Storage failure policies for the webhook endpoint.
const (
	// FailurePolicyAck acknowledges the delivery with a warning so the
	// processor stops retrying. The gap is logged and queued for replay.
	FailurePolicyAck = "ack"
	// FailurePolicyRetry answers 500 so the processor redelivers later.
	FailurePolicyRetry = "retry"
)

type Config struct {
	AppHost      string
	AppPort      string
	AppEnv       string
	PublicDomain string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	CacheHost     string
	CachePort     string
	CachePassword string

	StripeAPIKey           string
	StripeWebhookSecret    string
	StripeWebhookTolerance time.Duration
	CheckoutCurrency       string

	WebhookTimeout       time.Duration
	WebhookFailurePolicy string
	WebhookReplayWorkers int

	AdminEmails []string

	ArchiveBucket    string
	ArchiveRegion    string
	ArchiveEndpoint  string
	ArchiveAccessKey string
	ArchiveSecretKey string
}

// Load reads the configuration from the loaded .env map and the OS environment.
func Load() *Config {
	cfg := &Config{
		AppHost:      env.GetEnv("APP_HOST", "localhost"),
		AppPort:      env.GetEnv("APP_PORT", "4000"),
		AppEnv:       env.GetEnv("APP_ENV", "prod"),
		PublicDomain: strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/"),

		DBHost:     env.GetEnv("DB_HOST", "127.0.0.1"),
		DBPort:     env.GetEnv("DB_PORT", "3306"),
		DBUser:     env.GetEnv("DB_USER", ""),
		DBPassword: env.GetEnv("DB_PASSWORD", ""),
		DBName:     env.GetEnv("DB_NAME", "coursepay"),

		CacheHost:     env.GetEnv("CACHE_HOST", "localhost"),
		CachePort:     env.GetEnv("CACHE_PORT", "6379"),
		CachePassword: env.GetEnv("CACHE_PASSWORD", ""),

		StripeAPIKey:           strings.TrimSpace(env.GetEnv("STRIPE_API_KEY", "")),
		StripeWebhookSecret:    strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
		StripeWebhookTolerance: durationEnv("STRIPE_WEBHOOK_TOLERANCE", 5*time.Minute),
		CheckoutCurrency:       strings.ToLower(env.GetEnv("CHECKOUT_CURRENCY", "twd")),

		WebhookTimeout:       durationEnv("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookFailurePolicy: failurePolicyEnv("WEBHOOK_STORAGE_FAILURE_POLICY"),
		WebhookReplayWorkers: intEnv("WEBHOOK_REPLAY_WORKERS", 2),

		AdminEmails: listEnv("ADMIN_EMAILS"),

		ArchiveBucket:    strings.TrimSpace(env.GetEnv("ARCHIVE_S3_BUCKET", "")),
		ArchiveRegion:    env.GetEnv("ARCHIVE_S3_REGION", "us-east-1"),
		ArchiveEndpoint:  strings.TrimSpace(env.GetEnv("ARCHIVE_S3_ENDPOINT", "")),
		ArchiveAccessKey: env.GetEnv("ARCHIVE_S3_ACCESS_KEY", ""),
		ArchiveSecretKey: env.GetEnv("ARCHIVE_S3_SECRET_KEY", ""),
	}

	if cfg.PublicDomain == "" {
		cfg.PublicDomain = "http://" + cfg.AppHost + ":" + cfg.AppPort
	}
	return cfg
}

// IsDev reports whether the app runs in development mode.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

// ArchiveEnabled reports whether verified events are copied to S3.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveBucket != ""
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return false
	}
	for _, admin := range c.AdminEmails {
		if admin == e {
			return true
		}
	}
	return false
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(env.GetEnv(key, ""))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warnf("[Config] invalid %s=%q, using %s", key, raw, def)
		return def
	}
	return d
}

func intEnv(key string, def int) int {
	raw := strings.TrimSpace(env.GetEnv(key, ""))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		log.Warnf("[Config] invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return v
}

func failurePolicyEnv(key string) string {
	raw := strings.ToLower(strings.TrimSpace(env.GetEnv(key, FailurePolicyAck)))
	switch raw {
	case FailurePolicyAck, FailurePolicyRetry:
		return raw
	default:
		log.Warnf("[Config] invalid %s=%q, using %s", key, raw, FailurePolicyAck)
		return FailurePolicyAck
	}
}

func listEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(env.GetEnv(key, ""), ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
