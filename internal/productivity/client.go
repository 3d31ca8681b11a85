// Package productivity provides an HTTP client for the external
// task-automation service that turns portfolio activity into daily tasks.
package productivity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client communicates with the task-automation API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new task-automation API client.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Run triggers an automation run for a single user and returns the number
// of tasks created.
func (c *Client) Run(ctx context.Context, userID string) (int, error) {
	body := struct {
		UserID string `json:"user_id"`
	}{UserID: userID}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshaling automation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/automations/run", strings.NewReader(string(jsonBody)))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("running automation: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("running automation: unexpected status %d", resp.StatusCode)
	}

	var result struct {
		TasksCreated int `json:"tasks_created"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decoding automation response: %w", err)
	}
	return result.TasksCreated, nil
}
