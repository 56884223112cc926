package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/CoursePay/app/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
)

// objectAPI is the subset of the S3 client the archive needs.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// Record is one archived event.
type Record struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	ReceivedAt  time.Time `json:"received_at"`
	PayloadJSON string    `json:"-"`
}

// RecordFromEvent converts an event log row.
func RecordFromEvent(ev *models.WebhookEvent) Record {
	received := ev.ReceivedAt
	if received.IsZero() {
		received = time.Now()
	}
	return Record{
		EventID:     ev.EventID,
		Type:        ev.Type,
		ReceivedAt:  received,
		PayloadJSON: ev.PayloadJSON,
	}
}

// Client writes event records to an S3 compatible bucket
type Client struct {
	s3Client objectAPI
	config   *Config
}

// NewClient creates a new archive client and checks the bucket is reachable
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, errors.New("event archive is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	client := newClient(s3Client, cfg)
	if err := client.testConnection(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[Archive] Successfully initialized S3 client for bucket: %s", cfg.BucketName)
	return client, nil
}

func newClient(api objectAPI, cfg *Config) *Client {
	return &Client{s3Client: api, config: cfg}
}

// testConnection checks the bucket exists and creates it outside production
func (c *Client) testConnection(ctx context.Context) error {
	bucket := c.config.BucketName
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	if c.config.AppEnv == "prod" {
		return fmt.Errorf("bucket %s not accessible: %w", bucket, err)
	}

	log.Warnf("[Archive] Bucket %s not found, attempting to create it", bucket)
	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if c.config.EndpointURL == "" && c.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.config.Region),
		}
	}
	if _, err := c.s3Client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

type archivedEvent struct {
	EventID    string          `json:"event_id"`
	Type       string          `json:"type"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}

// ArchiveEvent uploads the record and returns its object key.
func (c *Client) ArchiveEvent(ctx context.Context, rec Record) (string, error) {
	if rec.EventID == "" {
		return "", errors.New("event id is required")
	}

	doc := archivedEvent{
		EventID:    rec.EventID,
		Type:       rec.Type,
		ReceivedAt: rec.ReceivedAt.UTC(),
		Payload:    json.RawMessage(rec.PayloadJSON),
	}
	if !json.Valid(doc.Payload) {
		// Keep the bytes even when they are not JSON.
		quoted, _ := json.Marshal(rec.PayloadJSON)
		doc.Payload = quoted
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode event %s: %w", rec.EventID, err)
	}

	key := ObjectKey(rec.EventID, rec.ReceivedAt)
	_, err = c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
		Metadata: map[string]string{
			"event-id":   rec.EventID,
			"event-type": rec.Type,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	log.Infof("[Archive] Stored event %s at s3://%s/%s", rec.EventID, c.config.BucketName, key)
	return key, nil
}
