package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

// DefaultRequestTimeout bounds every request unless the caller's context
// expires first.
const DefaultRequestTimeout = 60 * time.Second

var (
	// ErrTimeout is returned when a request exceeds the client's request timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrNotFound matches a *StatusError with a 404 status via errors.Is.
	ErrNotFound = errors.New("not found")
)

// StatusError is returned for any response with status >= 400.
type StatusError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server error (%d)", e.StatusCode)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not a
// *StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the backend root, e.g. http://localhost:5000
	BaseURL string
	// RequestTimeout bounds each request (default: 60s)
	RequestTimeout time.Duration
	// HTTPClient overrides the transport (default: a fresh http.Client)
	HTTPClient *http.Client
}

// Client is an HTTP client for the translation backend.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	requestTimeout time.Duration
}

// NewClient creates a new API client with default settings.
func NewClient(baseURL string) *Client {
	return NewClientWithConfig(ClientConfig{BaseURL: baseURL})
}

// NewClientWithConfig creates a new API client.
func NewClientWithConfig(cfg ClientConfig) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:     cfg.HTTPClient,
		requestTimeout: cfg.RequestTimeout,
	}
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request and decodes the JSON response.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	return decode(body, result)
}

// GetText performs a GET request and returns the raw response body.
func (c *Client) GetText(ctx context.Context, path string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Post performs a POST request with JSON body and decodes the response.
func (c *Client) Post(ctx context.Context, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	resp, err := c.do(ctx, http.MethodPost, path, bodyReader, "application/json")
	if err != nil {
		return err
	}
	return decode(resp, result)
}

// PostFile uploads a file as multipart/form-data under fileField, together
// with plain form fields, and decodes the JSON response.
func (c *Client) PostFile(ctx context.Context, path, fileField, filePath string, fields map[string]string, result any) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	part, err := mw.CreateFormFile(fileField, filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish form: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, path, &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}
	return decode(resp, result)
}

// WaitReady polls path until the backend answers with a non-5xx status or
// attempts run out.
func (c *Client) WaitReady(ctx context.Context, path string, attempts uint, delay time.Duration) error {
	return retry.Do(
		func() error {
			_, err := c.do(ctx, http.MethodGet, path, nil, "")
			if code := StatusCode(err); code > 0 && code < 500 {
				return nil
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			elapsed := time.Since(start).Round(time.Millisecond)
			return nil, fmt.Errorf("%w: %s %s after %s", ErrTimeout, method, path, elapsed)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return handleResponse(resp)
}

func handleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		se := &StatusError{StatusCode: resp.StatusCode, Body: body}
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil {
			se.Message = errResp.Error
			if se.Message == "" {
				se.Message = errResp.Message
			}
		}
		if se.Message == "" {
			se.Message = strings.TrimSpace(string(body))
		}
		return nil, se
	}

	return body, nil
}

func decode(body []byte, result any) error {
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ErrorResponse matches the backend's error response formats.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
