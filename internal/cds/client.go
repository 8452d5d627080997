// Package cds implements the Climate Data Store retrieve client used by
// the download command. The service delivers point time-series as CSV
// fragments inside a ZIP archive.
package cds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nordwx/era5cli/internal/config"
	"github.com/nordwx/era5cli/pkg/logger"
)

// Request is the fixed request shape accepted by the retrieve endpoint.
type Request struct {
	Dataset   string
	Variables []string
	Latitude  float64
	Longitude float64
	DateRange string
	Format    string
}

// Client handles HTTP requests to the CDS API.
type Client struct {
	baseURL    string
	key        string
	maxRetries int
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logger.Logger
}

// NewClient creates a CDS API client. The key is taken from the config
// when set, otherwise from the cdsapirc-style credentials file.
func NewClient(cfg config.CDSConfig, log *logger.Logger) (*Client, error) {
	key := cfg.Key
	if key == "" {
		var err error
		key, err = readCredentials(cfg.CredentialsPath)
		if err != nil {
			return nil, err
		}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cds",
		MaxRequests: 2,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		key:        key,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		breaker: breaker,
		logger:  log.Named("cds-client"),
	}, nil
}

// Retrieve requests the dataset and writes the resulting archive to
// targetPath. The write goes through a temp file so a failed download
// never leaves a truncated archive behind.
func (c *Client) Retrieve(ctx context.Context, req Request, targetPath string) error {
	body := map[string]interface{}{
		"variable": req.Variables,
		"location": map[string]float64{
			"longitude": req.Longitude,
			"latitude":  req.Latitude,
		},
		"date":        []string{req.DateRange},
		"data_format": req.Format,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode retrieve request: %w", err)
	}

	url := fmt.Sprintf("%s/retrieve/v1/processes/%s/execution", c.baseURL, req.Dataset)

	c.logger.Info("Requesting ERA5-Land time-series",
		logger.Float64("lat", req.Latitude),
		logger.Float64("lon", req.Longitude),
		logger.String("target", targetPath))

	data, err := c.fetchWithRetry(ctx, url, payload)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(targetPath), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), targetPath); err != nil {
		return fmt.Errorf("failed to move archive into place: %w", err)
	}

	c.logger.Info("Saved dataset", logger.String("path", targetPath))
	return nil
}

// fetchWithRetry performs the request with bounded retries and
// exponential backoff, wrapped in the circuit breaker so repeated bulk
// failures stop hammering the API.
func (c *Client) fetchWithRetry(ctx context.Context, url string, payload []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			c.logger.Info("Retrying CDS request",
				logger.Int("attempt", attempt),
				logger.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.fetchOnce(ctx, url, payload)
		})
		if err != nil {
			lastErr = err
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return nil, fmt.Errorf("CDS API unavailable (circuit open): %w", err)
			}
			c.logger.Warn("CDS request failed, may retry",
				logger.Error(err),
				logger.Int("attempt", attempt+1),
				logger.Int("max_attempts", c.maxRetries+1))
			continue
		}
		return result.([]byte), nil
	}

	return nil, fmt.Errorf("CDS request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PRIVATE-TOKEN", c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request to CDS API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading CDS response: %w", err)
	}
	return data, nil
}

// readCredentials parses a cdsapirc-style credentials file ("url: ..."
// and "key: ..." lines) and returns the key.
func readCredentials(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("no CDS credentials found (run 'weather configure --token ...'): %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "key:"); ok {
			key := strings.TrimSpace(rest)
			if key != "" {
				return key, nil
			}
		}
	}
	return "", fmt.Errorf("credentials file %s has no key entry", path)
}

// WriteCredentials writes the cdsapirc-style credentials file used by
// the configure command.
func WriteCredentials(path, url, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	content := fmt.Sprintf("url: %s\nkey: %s\n", url, token)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}
