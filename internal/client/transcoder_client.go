package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/learnhub/api/internal/config"
	"github.com/learnhub/api/internal/model"
)

// JobService defines the interface for the managed transcoder
type JobService interface {
	CreateJob(ctx context.Context, job *model.JobConfig) (string, error)
	DeleteJob(ctx context.Context, name string) error
}

// TranscoderClient implements JobService over the transcoder REST API
type TranscoderClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	parent     string
}

type createJobResponse struct {
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

// NewTranscoderClient creates a new transcoder client
func NewTranscoderClient(cfg *config.TranscoderConfig) *TranscoderClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TranscoderClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		parent:     strings.Trim(cfg.Parent, "/"),
	}
}

// CreateJob submits a job and returns the job name assigned by the service
func (c *TranscoderClient) CreateJob(ctx context.Context, job *model.JobConfig) (string, error) {
	if !c.IsConfigured() {
		return c.createMock(), nil
	}

	var result createJobResponse
	if err := c.do(ctx, http.MethodPost, "/v1/"+c.parent+"/jobs", job, &result); err != nil {
		return "", err
	}
	if result.Name == "" {
		return "", fmt.Errorf("transcoder returned an empty job name")
	}
	return result.Name, nil
}

// DeleteJob cancels and deletes a job. It fails if the job already finished
// and was reaped by the service.
func (c *TranscoderClient) DeleteJob(ctx context.Context, name string) error {
	if !c.IsConfigured() {
		return nil
	}
	return c.do(ctx, http.MethodDelete, "/v1/"+strings.TrimPrefix(name, "/"), nil, nil)
}

// IsConfigured returns true if the client has valid configuration
func (c *TranscoderClient) IsConfigured() bool {
	return c.baseURL != "" && c.parent != ""
}

func (c *TranscoderClient) do(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("transcoder error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// Mock implementation for development
func (c *TranscoderClient) createMock() string {
	return "projects/local/locations/local/jobs/" + uuid.New().String()
}
