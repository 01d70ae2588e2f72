package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// streamSuffix turns a REST resource path into its SSE counterpart.
const streamSuffix = "/stream"

// Pagination selects one page of a collection. Zero values are omitted from
// the query string.
type Pagination struct {
	Page     int
	PageSize int
}

// Filters narrows collection queries. Optional boolean filters use pointers
// so "unset" and "false" stay distinguishable; unset filters are omitted from
// the URL entirely.
type Filters struct {
	Search      string
	Status      string
	EntityType  string
	Downloaded  *bool
	Failed      *bool
	Blacklisted *bool
}

// Bool returns a pointer for use in optional [Filters] fields.
func Bool(b bool) *bool { return &b }

func (f Filters) values() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.EntityType != "" {
		v.Set("entity_type", f.EntityType)
	}
	if f.Downloaded != nil {
		v.Set("downloaded", strconv.FormatBool(*f.Downloaded))
	}
	if f.Failed != nil {
		v.Set("failed", strconv.FormatBool(*f.Failed))
	}
	if f.Blacklisted != nil {
		v.Set("blacklisted", strconv.FormatBool(*f.Blacklisted))
	}
	return v
}

func (p Pagination) fill(v url.Values) {
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(p.PageSize))
	}
}

// resourceURL builds origin + path with the encoded query. url.Values.Encode
// sorts keys, so output is stable for stable input.
func resourceURL(origin, path string, f Filters, p Pagination, stream bool) string {
	v := f.values()
	p.fill(v)
	if stream {
		path += streamSuffix
	}
	u := strings.TrimSuffix(origin, "/") + path
	if enc := v.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// ProgressURL returns the REST endpoint for the global progress map.
func ProgressURL(origin string) string {
	return resourceURL(origin, "/progress", Filters{}, Pagination{}, false)
}

// ProgressStreamURL returns the SSE endpoint for the global progress map.
func ProgressStreamURL(origin string) string {
	return resourceURL(origin, "/progress", Filters{}, Pagination{}, true)
}

// ListsURL returns the REST endpoint for video lists.
func ListsURL(origin string, f Filters, p Pagination) string {
	return resourceURL(origin, "/lists", f, p, false)
}

// ListsStreamURL returns the SSE endpoint for video lists.
func ListsStreamURL(origin string, f Filters, p Pagination) string {
	return resourceURL(origin, "/lists", f, p, true)
}

// TasksURL returns the REST endpoint for the global task queue.
func TasksURL(origin string, f Filters, p Pagination) string {
	return resourceURL(origin, "/tasks", f, p, false)
}

// TasksStreamURL returns the SSE endpoint for the global task queue.
func TasksStreamURL(origin string, f Filters, p Pagination) string {
	return resourceURL(origin, "/tasks", f, p, true)
}

// HistoryURL returns the REST endpoint for global history.
func HistoryURL(origin string, f Filters, p Pagination) string {
	return resourceURL(origin, "/history", f, p, false)
}

// HistoryStreamURL returns the SSE endpoint for global history.
func HistoryStreamURL(origin string, f Filters, p Pagination) string {
	return resourceURL(origin, "/history", f, p, true)
}

// ListVideosURL returns the REST endpoint for one list's videos.
func ListVideosURL(origin string, listID int64, f Filters, p Pagination) string {
	return resourceURL(origin, fmt.Sprintf("/lists/%d/videos", listID), f, p, false)
}

// ListVideosStreamURL returns the SSE endpoint for one list's videos.
func ListVideosStreamURL(origin string, listID int64, f Filters, p Pagination) string {
	return resourceURL(origin, fmt.Sprintf("/lists/%d/videos", listID), f, p, true)
}

// ListTasksURL returns the REST endpoint for one list's tasks.
func ListTasksURL(origin string, listID int64, f Filters, p Pagination) string {
	return resourceURL(origin, fmt.Sprintf("/lists/%d/tasks", listID), f, p, false)
}

// ListTasksStreamURL returns the SSE endpoint for one list's tasks.
func ListTasksStreamURL(origin string, listID int64, f Filters, p Pagination) string {
	return resourceURL(origin, fmt.Sprintf("/lists/%d/tasks", listID), f, p, true)
}

// ListHistoryURL returns the REST endpoint for one list's history.
func ListHistoryURL(origin string, listID int64, f Filters, p Pagination) string {
	return resourceURL(origin, fmt.Sprintf("/lists/%d/history", listID), f, p, false)
}

// ListHistoryStreamURL returns the SSE endpoint for one list's history.
func ListHistoryStreamURL(origin string, listID int64, f Filters, p Pagination) string {
	return resourceURL(origin, fmt.Sprintf("/lists/%d/history", listID), f, p, true)
}

// ListStatsURL returns the REST endpoint for one list's stats.
func ListStatsURL(origin string, listID int64) string {
	return resourceURL(origin, fmt.Sprintf("/lists/%d/stats", listID), Filters{}, Pagination{}, false)
}

// ListStatsStreamURL returns the SSE endpoint carrying combined stats, active
// tasks, and changed-video hints for one list.
func ListStatsStreamURL(origin string, listID int64) string {
	return resourceURL(origin, fmt.Sprintf("/lists/%d/stats", listID), Filters{}, Pagination{}, true)
}

// RESTEquivalent maps a stream URL to its one-shot REST endpoint by dropping
// the /stream path segment while preserving the query. Used by fallback
// consumers so the fetch carries the exact parameters that built the stream.
func RESTEquivalent(streamURL string) string {
	u, err := url.Parse(streamURL)
	if err != nil {
		return streamURL
	}
	u.Path = strings.TrimSuffix(u.Path, streamSuffix)
	return u.String()
}
