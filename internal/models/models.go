package models

import "time"

// Download status values reported in [Progress.Status].
const (
	StatusPending     = "pending"
	StatusDownloading = "downloading"
	StatusProcessing  = "processing"
	StatusCompleted   = "completed"
	StatusError       = "error"
)

// Progress is the per-video download progress record pushed by the server.
type Progress struct {
	VideoID int64   `json:"video_id"`
	Status  string  `json:"status"`
	Percent float64 `json:"percent"`
	Speed   string  `json:"speed,omitempty"`
	ETA     string  `json:"eta,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// ProgressMap maps video id to its current [Progress]. Each message on the
// progress stream carries the complete map; consumers replace, never merge.
type ProgressMap map[int64]Progress

// TaskQueue is a point-in-time snapshot of queue membership for one task kind.
type TaskQueue struct {
	Pending []int64 `json:"pending"`
	Running []int64 `json:"running"`
}

// ActiveTasks snapshots the sync and download queues. Always replaced
// wholesale on each stream message.
type ActiveTasks struct {
	Sync     TaskQueue `json:"sync"`
	Download TaskQueue `json:"download"`
}

// VideoListStats holds authoritative counts for one video list.
type VideoListStats struct {
	TotalVideos int `json:"total_videos"`
	Downloaded  int `json:"downloaded"`
	Failed      int `json:"failed"`
	Blacklisted int `json:"blacklisted"`
	Pending     int `json:"pending"`
}

// VideoListUpdate is the combined message delivered on a per-list change
// stream. ChangedVideoIDs is a refetch hint for the rows that changed, not a
// row payload.
type VideoListUpdate struct {
	Stats           VideoListStats `json:"stats"`
	Tasks           ActiveTasks    `json:"tasks"`
	ChangedVideoIDs []int64        `json:"changed_video_ids"`
}

// VideoList is a tracked channel or playlist on the download server.
type VideoList struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	EntityType string         `json:"entity_type"`
	SourceURL  string         `json:"source_url"`
	Enabled    bool           `json:"enabled"`
	Stats      VideoListStats `json:"stats"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Video is one entry of a video list.
type Video struct {
	ID          int64     `json:"id"`
	ListID      int64     `json:"list_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Status      string    `json:"status"`
	Downloaded  bool      `json:"downloaded"`
	Failed      bool      `json:"failed"`
	Blacklisted bool      `json:"blacklisted"`
	PublishedAt time.Time `json:"published_at"`
}

// Task is a queued or running unit of work (sync or download).
type Task struct {
	ID         int64     `json:"id"`
	ListID     int64     `json:"list_id"`
	VideoID    int64     `json:"video_id,omitempty"`
	EntityType string    `json:"entity_type"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryEntry records one finished download or sync run.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	ListID     int64     `json:"list_id"`
	VideoID    int64     `json:"video_id,omitempty"`
	EntityType string    `json:"entity_type"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// VideoListPage is the paginated envelope for list collections.
type VideoListPage struct {
	Entries  []VideoList `json:"entries"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// VideoPage is the paginated envelope for videos of one list.
type VideoPage struct {
	Entries  []Video `json:"entries"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// TaskPage is the paginated envelope for task queries. Queues rides along so
// a single message can refresh both the table and the queue counters.
type TaskPage struct {
	Entries  []Task       `json:"entries"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Queues   *ActiveTasks `json:"tasks,omitempty"`
}

// HistoryPage is the paginated envelope for history queries.
type HistoryPage struct {
	Entries  []HistoryEntry `json:"entries"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}
