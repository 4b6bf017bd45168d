package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/angelmondragon/estatedesk-backend/pkg/config"
	"github.com/angelmondragon/estatedesk-backend/pkg/logger"
)

const (
	pingTimeout          = 5 * time.Second
	defaultUploadTimeout = 30 * time.Second
	defaultPublicBaseURL = "https://storage.googleapis.com"
)

type writerFunc func(ctx context.Context, object, contentType string) io.WriteCloser

// Client uploads sale attachments into a single bucket and hands back public URLs.
type Client struct {
	gcs           *storage.Client
	bucket        string
	publicBaseURL string
	uploadTimeout time.Duration
	newWriter     writerFunc
	logg          *logger.Logger
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case gcp.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}

	gcsClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}

	client := newClient(cfg, logg)
	client.gcs = gcsClient
	client.newWriter = func(ctx context.Context, object, contentType string) io.WriteCloser {
		w := gcsClient.Bucket(cfg.BucketName).Object(object).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}

	if err := client.Ping(ctx); err != nil {
		_ = gcsClient.Close()
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}

	return client, nil
}

func newClient(cfg config.GCSConfig, logg *logger.Logger) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		base = defaultPublicBaseURL
	}
	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = defaultUploadTimeout
	}
	return &Client{
		bucket:        cfg.BucketName,
		publicBaseURL: base,
		uploadTimeout: timeout,
		logg:          logg,
	}
}

func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

// Upload streams body into object and returns its public URL.
func (c *Client) Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error) {
	if c == nil || c.newWriter == nil {
		return "", errors.New("gcs client not initialized")
	}
	object = strings.TrimLeft(object, "/")
	if object == "" {
		return "", errors.New("object name is required")
	}
	if body == nil {
		return "", errors.New("upload body is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	w := c.newWriter(ctx, object, contentType)
	if _, err := io.Copy(w, body); err != nil {
		// Close commits a writer whose context is still live.
		cancel()
		closeWriter(ctx, c.logg, w, "closing aborted gcs writer")
		return "", fmt.Errorf("writing object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing object %s: %w", object, err)
	}
	return c.PublicURL(object), nil
}

// PublicURL builds the public address of object without touching the network.
func (c *Client) PublicURL(object string) string {
	segments := strings.Split(strings.TrimLeft(object, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/%s/%s", c.publicBaseURL, c.bucket, strings.Join(segments, "/"))
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.gcs == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.gcs.Bucket(c.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs bucket %q not accessible: %w", c.bucket, err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.gcs == nil {
		return nil
	}
	return c.gcs.Close()
}

func closeWriter(ctx context.Context, logg *logger.Logger, w io.Closer, msg string) {
	if w == nil {
		return
	}
	if err := w.Close(); err != nil && logg != nil {
		logg.Warn(ctx, msg)
	}
}
