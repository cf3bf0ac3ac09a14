package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"creditdesk/internal/domain"
)

// defaultTimeout bounds every webhook call so a stalled engine cannot hang a
// turn; the resulting error surfaces as a normalized tool failure.
const defaultTimeout = 10 * time.Second

// Client calls the workflow engine's webhook endpoints (n8n-style).
type Client struct {
	pipelineURL   string
	createItemURL string
	httpClient    *http.Client
}

// NewClient returns a workflow client for the configured endpoints. Empty
// URLs are allowed: PipelineSummary falls back to a deterministic mock and
// CreateWorkItem reports the engine as unconfigured.
func NewClient(cfg domain.WorkflowConfig) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		pipelineURL:   cfg.PipelineURL,
		createItemURL: cfg.CreateItemURL,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

type createWorkItemPayload struct {
	Borrower string `json:"borrower"`
	Officer  string `json:"officer"`
	Note     string `json:"note"`
}

// CreateWorkItem implements domain.WorkflowClient. It POSTs the work item to
// the engine and returns the raw acknowledgement body.
func (c *Client) CreateWorkItem(ctx context.Context, borrower, officer, note string) (string, error) {
	if c.createItemURL == "" {
		return "", fmt.Errorf("workflow: create-work-item endpoint not configured")
	}

	raw, err := json.Marshal(createWorkItemPayload{Borrower: borrower, Officer: officer, Note: note})
	if err != nil {
		return "", fmt.Errorf("workflow marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.createItemURL, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("workflow request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("workflow do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("workflow read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("workflow engine %s: %s", resp.Status, string(body))
	}
	return string(body), nil
}

// PipelineSummary implements domain.WorkflowClient. Without a configured
// endpoint it returns a small deterministic snapshot so demos and tests work
// with no engine running.
func (c *Client) PipelineSummary(ctx context.Context) (string, error) {
	if c.pipelineURL == "" {
		return mockPipelineSnapshot()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pipelineURL, nil)
	if err != nil {
		return "", fmt.Errorf("workflow request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("workflow do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("workflow read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("workflow engine %s: %s", resp.Status, string(body))
	}
	return string(body), nil
}

// mockPipelineSnapshot is the built-in snapshot used when no engine endpoint
// is configured.
func mockPipelineSnapshot() (string, error) {
	mock := map[string]any{
		"pipeline_date": "2025-11-01",
		"deals": []map[string]any{
			{
				"borrower": "ACME Industrial LLC",
				"stage":    "Underwriting",
				"officer":  "Smith",
				"exposure": 15000000,
				"notes":    "Awaiting updated rent roll, DSCR tight",
			},
			{
				"borrower": "Greenfield Storage Partners",
				"stage":    "Spreading",
				"officer":  "Lopez",
				"exposure": 4200000,
				"notes":    "Need YE2024 financials, leverage high",
			},
		},
	}
	raw, err := json.MarshalIndent(mock, "", "  ")
	if err != nil {
		return "", fmt.Errorf("workflow mock marshal: %w", err)
	}
	return string(raw), nil
}

// Ensure Client implements domain.WorkflowClient.
var _ domain.WorkflowClient = (*Client)(nil)
