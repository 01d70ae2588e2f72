package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tannerhaus/vdx/internal/models"
	"github.com/tannerhaus/vdx/internal/shared"
)

// Client performs one-shot REST requests against the download server.
type Client struct {
	origin     string
	httpClient *http.Client
}

// NewClient creates a REST client for the given API origin.
func NewClient(origin string, client *http.Client) *Client {
	if origin == "" {
		origin = shared.DefaultOrigin
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		origin:     origin,
		httpClient: client,
	}
}

// Origin returns the API origin this client talks to.
func (c *Client) Origin() string { return c.origin }

// GetJSON performs a GET against the given absolute URL and decodes the JSON
// response into v. Non-2xx responses are reported as [shared.ErrAPIRequest].
func (c *Client) GetJSON(ctx context.Context, fullURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned %d", shared.ErrAPIRequest, fullURL, resp.StatusCode)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// FetchProgress retrieves the current progress map.
func (c *Client) FetchProgress(ctx context.Context) (models.ProgressMap, error) {
	var m models.ProgressMap
	if err := c.GetJSON(ctx, ProgressURL(c.origin), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// FetchLists retrieves one page of video lists.
func (c *Client) FetchLists(ctx context.Context, f Filters, p Pagination) (*models.VideoListPage, error) {
	var page models.VideoListPage
	if err := c.GetJSON(ctx, ListsURL(c.origin, f, p), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchTasks retrieves one page of the global task queue.
func (c *Client) FetchTasks(ctx context.Context, f Filters, p Pagination) (*models.TaskPage, error) {
	var page models.TaskPage
	if err := c.GetJSON(ctx, TasksURL(c.origin, f, p), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchHistory retrieves one page of global history.
func (c *Client) FetchHistory(ctx context.Context, f Filters, p Pagination) (*models.HistoryPage, error) {
	var page models.HistoryPage
	if err := c.GetJSON(ctx, HistoryURL(c.origin, f, p), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchListVideos retrieves one page of a list's videos.
func (c *Client) FetchListVideos(ctx context.Context, listID int64, f Filters, p Pagination) (*models.VideoPage, error) {
	var page models.VideoPage
	if err := c.GetJSON(ctx, ListVideosURL(c.origin, listID, f, p), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchListTasks retrieves one page of a list's tasks.
func (c *Client) FetchListTasks(ctx context.Context, listID int64, f Filters, p Pagination) (*models.TaskPage, error) {
	var page models.TaskPage
	if err := c.GetJSON(ctx, ListTasksURL(c.origin, listID, f, p), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchListHistory retrieves one page of a list's history.
func (c *Client) FetchListHistory(ctx context.Context, listID int64, f Filters, p Pagination) (*models.HistoryPage, error) {
	var page models.HistoryPage
	if err := c.GetJSON(ctx, ListHistoryURL(c.origin, listID, f, p), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchListStats retrieves the combined stats and active tasks for one list.
func (c *Client) FetchListStats(ctx context.Context, listID int64) (*models.VideoListUpdate, error) {
	var update models.VideoListUpdate
	if err := c.GetJSON(ctx, ListStatsURL(c.origin, listID), &update); err != nil {
		return nil, err
	}
	return &update, nil
}
