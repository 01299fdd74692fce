package supastore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/legalchicks/coopnet/internal/config"
)

// Client exposes the object storage operations used by the application:
// upload bytes by path and resolve a durable public URL.
type Client interface {
	Upload(ctx context.Context, path string, contentType string, data []byte) error
	PublicURL(path string) string
}

// APIClient is a resty-backed implementation targeting the Supabase storage API.
type APIClient struct {
	httpClient *resty.Client
	baseURL    string
	bucket     string
}

// NewClient builds a storage client using the provided configuration values.
func NewClient(cfg config.StorageConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New().
		SetBaseURL(base+"/storage/v1").
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.ServiceKey)).
		SetTimeout(30 * time.Second)

	return &APIClient{
		httpClient: restyClient,
		baseURL:    base,
		bucket:     cfg.Bucket,
	}
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Upload stores the bytes at bucket/path, replacing any existing object.
func (c *APIClient) Upload(ctx context.Context, path string, contentType string, data []byte) error {
	if path == "" {
		return fmt.Errorf("path must not be empty")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var errBody apiError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeader("x-upsert", "true").
		SetBody(data).
		SetError(&errBody).
		Post(fmt.Sprintf("/object/%s/%s", c.bucket, path))

	if err != nil {
		return fmt.Errorf("storage upload: %w", err)
	}
	if resp.IsError() {
		msg := errBody.Message
		if msg == "" {
			msg = resp.Status()
		}
		return fmt.Errorf("storage upload failed: %s", msg)
	}
	return nil
}

// PublicURL resolves the durable public URL for an object. The bucket must be
// public for the URL to serve.
func (c *APIClient) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, path)
}
