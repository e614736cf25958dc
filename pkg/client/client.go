package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kurihiro0119/github-sentinel/internal/domain"
)

// Client is the API client for github-sentinel
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListSubscriptions retrieves the subscription list
func (c *Client) ListSubscriptions() ([]domain.Subscription, error) {
	var response struct {
		Data []domain.Subscription `json:"data"`
	}
	if err := c.do(http.MethodGet, "/api/v1/subscriptions", nil, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// AddSubscription adds a tracked repository. repo accepts owner/repo or a
// full GitHub URL.
func (c *Client) AddSubscription(repo, label string, track []string) (*domain.Subscription, error) {
	body := map[string]interface{}{
		"repo":  repo,
		"label": label,
		"track": track,
	}
	var response struct {
		Data *domain.Subscription `json:"data"`
	}
	if err := c.do(http.MethodPost, "/api/v1/subscriptions", nil, body, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// RemoveSubscription removes a tracked repository
func (c *Client) RemoveSubscription(owner, repo string) error {
	path := fmt.Sprintf("/api/v1/subscriptions/%s/%s", owner, repo)
	return c.do(http.MethodDelete, path, nil, nil, nil)
}

// RunResult describes what an immediate run produced
type RunResult struct {
	Reports            []*domain.ReportRecord `json:"reports"`
	FetchFailures      int                    `json:"fetch_failures"`
	GenerationFailures int                    `json:"generation_failures"`
}

// Run triggers an immediate fetch-and-report pass. repo may be empty to
// run every subscription; days <= 0 uses the configured lookback.
func (c *Client) Run(repo string, days int, digest bool) (*RunResult, error) {
	body := map[string]interface{}{
		"repo":   repo,
		"days":   days,
		"digest": digest,
	}
	var response struct {
		Data *RunResult `json:"data"`
	}
	if err := c.do(http.MethodPost, "/api/v1/run", nil, body, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListReports retrieves recent report records
func (c *Client) ListReports(limit int) ([]*domain.ReportRecord, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var response struct {
		Data []*domain.ReportRecord `json:"data"`
	}
	if err := c.do(http.MethodGet, "/api/v1/reports", params, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// Report is one stored report with its rendered content
type Report struct {
	Record  *domain.ReportRecord `json:"record"`
	Content string               `json:"content"`
}

// GetReport retrieves one report with its content
func (c *Client) GetReport(id string) (*Report, error) {
	var response struct {
		Data *Report `json:"data"`
	}
	if err := c.do(http.MethodGet, "/api/v1/reports/"+id, nil, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// SchedulerStatus describes the periodic runner state
type SchedulerStatus struct {
	Status   string `json:"status"`
	Schedule string `json:"schedule"`
}

// StartScheduler starts the periodic runner
func (c *Client) StartScheduler() (*SchedulerStatus, error) {
	var response struct {
		Data *SchedulerStatus `json:"data"`
	}
	if err := c.do(http.MethodPost, "/api/v1/scheduler/start", nil, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// StopScheduler stops the periodic runner
func (c *Client) StopScheduler() error {
	return c.do(http.MethodPost, "/api/v1/scheduler/stop", nil, nil, nil)
}

// GetSchedulerStatus retrieves the periodic runner state
func (c *Client) GetSchedulerStatus() (*SchedulerStatus, error) {
	var response struct {
		Data *SchedulerStatus `json:"data"`
	}
	if err := c.do(http.MethodGet, "/api/v1/scheduler/status", nil, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.do(http.MethodGet, "/health", nil, nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) do(method, path string, params url.Values, body, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, u.String(), reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(data))
	}

	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
