// Package pinning uploads token images to IPFS through a Pinata-compatible
// pinning service, so deep links can reference durable content instead of
// arbitrary user URLs.
package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"
)

// MaxImageBytes caps the fetched image size.
const MaxImageBytes = 5 << 20 // 5 MiB

// DefaultGateway serves pinned content over HTTPS.
const DefaultGateway = "https://ipfs.io/ipfs/"

const (
	defaultTimeout = 10 * time.Second
	maxRetries     = 3
	retryBaseDelay = 500 * time.Millisecond
)

var (
	// ErrImageTooLarge is returned when the source image exceeds MaxImageBytes.
	ErrImageTooLarge = errors.New("image exceeds maximum size")

	// ErrPinFailed is returned when the pinning service rejects the upload
	// after retries.
	ErrPinFailed = errors.New("pin request failed")
)

// Client talks to a Pinata-compatible pinning API.
type Client struct {
	apiURL     string
	jwt        string
	gateway    string
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithGateway sets the public gateway prefix for returned URLs.
func WithGateway(gateway string) Option {
	return func(c *Client) {
		c.gateway = gateway
	}
}

// WithLogger sets the client's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a pinning client. apiURL is the service base URL, jwt
// its bearer token.
func NewClient(apiURL, jwt string, opts ...Option) *Client {
	c := &Client{
		apiURL:     apiURL,
		jwt:        jwt,
		gateway:    DefaultGateway,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// PinImageURL downloads the image at srcURL and pins it, returning the
// public gateway URL of the pinned content.
func (c *Client) PinImageURL(ctx context.Context, srcURL string) (string, error) {
	img, err := c.fetch(ctx, srcURL)
	if err != nil {
		return "", err
	}
	return c.pin(ctx, img)
}

// fetch downloads the source image, enforcing the size cap.
func (c *Client) fetch(ctx context.Context, srcURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	if resp.ContentLength > MaxImageBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, resp.ContentLength)
	}

	// Read one byte past the cap to detect oversize bodies with no
	// Content-Length header.
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(body) > MaxImageBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrImageTooLarge, MaxImageBytes)
	}
	return body, nil
}

// pin uploads the image bytes, retrying transient service errors.
func (c *Client) pin(ctx context.Context, img []byte) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(1<<(attempt-1))
			c.logger.Printf("pin attempt %d/%d failed, retrying in %v: %v", attempt, maxRetries, delay, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		hash, retryable, err := c.pinOnce(ctx, img)
		if err == nil {
			return c.gateway + hash, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %v", ErrPinFailed, lastErr)
}

func (c *Client) pinOnce(ctx context.Context, img []byte) (hash string, retryable bool, err error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "token-image")
	if err != nil {
		return "", false, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(img); err != nil {
		return "", false, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", false, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/pinning/pinFileToIPFS", &buf)
	if err != nil {
		return "", false, fmt.Errorf("build pin request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("pin request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("%w: status %d", ErrPinFailed, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("%w: status %d", ErrPinFailed, resp.StatusCode)
	}

	var out pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, fmt.Errorf("decode pin response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", false, fmt.Errorf("%w: empty content hash", ErrPinFailed)
	}
	return out.IpfsHash, false, nil
}
