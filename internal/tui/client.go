package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the sift API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

// ListSuggestions fetches the pending triage inbox
func (c *Client) ListSuggestions() ([]SuggestionItem, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/suggestions")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var items []SuggestionItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

// Today fetches the grouped today view
func (c *Client) Today() (*TodayGroups, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/today")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var groups TodayGroups
	if err := json.NewDecoder(resp.Body).Decode(&groups); err != nil {
		return nil, err
	}
	return &groups, nil
}

// Accept promotes a suggestion into the given timeline slot
func (c *Client) Accept(id int64, shortcut string) error {
	_, err := c.post(fmt.Sprintf("/api/suggestions/%d/accept", id), map[string]string{
		"shortcut": shortcut,
	})
	return err
}

// Discard removes a suggestion from the inbox
func (c *Client) Discard(id int64) error {
	_, err := c.post(fmt.Sprintf("/api/suggestions/%d/discard", id), nil)
	return err
}

// Toggle flips a todo between pending and completed
func (c *Client) Toggle(id int64) error {
	_, err := c.post(fmt.Sprintf("/api/todos/%d/toggle", id), nil)
	return err
}

// TriggerSync runs the ingest pipeline once
func (c *Client) TriggerSync() (int, error) {
	resp, err := c.post("/api/sync", map[string]string{"type": "manual"})
	if err != nil {
		return 0, err
	}
	var stats struct {
		ItemsExtracted int `json:"items_extracted"`
	}
	if err := json.Unmarshal(resp, &stats); err != nil {
		return 0, err
	}
	return stats.ItemsExtracted, nil
}

func (c *Client) post(path string, data interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	return body, nil
}

// CheckHealth checks if the daemon is healthy
func (c *Client) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
