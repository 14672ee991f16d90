// Package mirror uploads finished asset bundles to an S3-compatible object
// store. Mirroring is optional: the service runs without it and callers
// treat upload failures as non-fatal.
package mirror

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type URLMode string

const (
	URLModePresigned URLMode = "presigned"
	URLModePublic    URLMode = "public"
)

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	URLMode         URLMode
	PresignedTTL    time.Duration
}

// ConfigFromEnv reads the mirror configuration from STYLEASSETS_S3_*
// variables.
func ConfigFromEnv() Config {
	cfg := Config{
		Bucket:          os.Getenv("STYLEASSETS_S3_BUCKET"),
		Region:          os.Getenv("STYLEASSETS_S3_REGION"),
		Endpoint:        os.Getenv("STYLEASSETS_S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("STYLEASSETS_S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("STYLEASSETS_S3_SECRET_ACCESS_KEY"),
		URLMode:         URLMode(os.Getenv("STYLEASSETS_S3_URL_MODE")),
	}
	if v := os.Getenv("STYLEASSETS_S3_USE_PATH_STYLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UsePathStyle = b
		}
	}
	if v := os.Getenv("STYLEASSETS_S3_PRESIGNED_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PresignedTTL = d
		}
	}
	return cfg
}

// Enabled reports whether enough configuration is present to mirror.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Bucket) != "" &&
		strings.TrimSpace(c.AccessKeyID) != "" &&
		strings.TrimSpace(c.SecretAccessKey) != ""
}

// Store mirrors bundle archives into an object store bucket.
type Store struct {
	client       *s3.Client
	presign      *s3.PresignClient
	bucket       string
	endpoint     string
	usePathStyle bool
	urlMode      URLMode
	presignedTTL time.Duration
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("s3 bucket and credentials are required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.URLMode == "" {
		// Mirror URLs are stored in bundle records, so a stable public
		// URL is the default.
		cfg.URLMode = URLModePublic
	}
	if cfg.URLMode != URLModePresigned && cfg.URLMode != URLModePublic {
		return nil, fmt.Errorf("unsupported s3 url mode: %s", cfg.URLMode)
	}
	if cfg.PresignedTTL <= 0 {
		cfg.PresignedTTL = 5 * time.Minute
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("create aws config: %w", err)
	}

	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		if endpoint != "" {
			options.BaseEndpoint = aws.String(endpoint)
		}
		options.UsePathStyle = cfg.UsePathStyle
	})

	return &Store{
		client:       client,
		presign:      s3.NewPresignClient(client),
		bucket:       strings.TrimSpace(cfg.Bucket),
		endpoint:     endpoint,
		usePathStyle: cfg.UsePathStyle,
		urlMode:      cfg.URLMode,
		presignedTTL: cfg.PresignedTTL,
	}, nil
}

// Upload stores one object and returns the URL it can be fetched from.
func (m *Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("object key is required")
	}

	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object failed: %w", err)
	}
	return m.ObjectURL(ctx, key)
}

// ObjectURL returns a fetch URL for a stored object: a stable public URL
// or a presigned one, per the configured mode.
func (m *Store) ObjectURL(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	if m.urlMode == URLModePublic {
		return m.publicURL(key), nil
	}

	request, err := m.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(m.presignedTTL))
	if err != nil {
		return "", fmt.Errorf("presign failed: %w", err)
	}
	return request.URL, nil
}

func (m *Store) publicURL(key string) string {
	escapedKey := url.PathEscape(key)
	escapedKey = strings.ReplaceAll(escapedKey, "%2F", "/")
	if m.usePathStyle {
		return fmt.Sprintf("%s/%s/%s", m.endpoint, m.bucket, escapedKey)
	}
	endpoint := strings.TrimPrefix(m.endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return fmt.Sprintf("https://%s.%s/%s", m.bucket, endpoint, escapedKey)
}
