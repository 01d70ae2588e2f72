package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/tannerhaus/vdx/internal/models"
)

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func listPage() *models.VideoListPage {
	return &models.VideoListPage{
		Entries: []models.VideoList{
			{
				ID: 1, Name: "woodworking", EntityType: "channel", Enabled: true,
				Stats: models.VideoListStats{TotalVideos: 120, Downloaded: 100, Failed: 2, Pending: 18},
			},
			{
				ID: 2, Name: "mixes", EntityType: "playlist",
				Stats: models.VideoListStats{TotalVideos: 30, Downloaded: 30},
			},
		},
		Total: 2, Page: 1, PageSize: 25,
	}
}

func TestListsOutput(t *testing.T) {
	t.Run("CSV", func(t *testing.T) {
		data, err := ListsToCSV(listPage())
		if err != nil {
			t.Fatalf("failed to render CSV: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
		}
		if lines[0] != "ID,Name,Type,Enabled,Videos,Downloaded,Failed,Pending" {
			t.Errorf("unexpected header: %s", lines[0])
		}
		if !strings.HasPrefix(lines[1], "1,woodworking,channel,true,120,100,2,18") {
			t.Errorf("unexpected first row: %s", lines[1])
		}
	})

	t.Run("table", func(t *testing.T) {
		out := ListsToTable(listPage())
		if !strings.Contains(out, "woodworking") || !strings.Contains(out, "playlist") {
			t.Errorf("table missing entries:\n%s", out)
		}
		if !strings.Contains(out, "page 1 (2 of 2 entries)") {
			t.Errorf("table missing footer:\n%s", out)
		}
	})

	t.Run("empty page footer", func(t *testing.T) {
		out := ListsToTable(&models.VideoListPage{})
		if !strings.Contains(out, "no entries") {
			t.Errorf("expected empty footer:\n%s", out)
		}
	})
}

func TestTasksOutput(t *testing.T) {
	page := &models.TaskPage{
		Entries: []models.Task{
			{ID: 11, ListID: 1, VideoID: 42, EntityType: "download", Status: "running", CreatedAt: testTime},
		},
		Total: 1, Page: 1,
		Queues: &models.ActiveTasks{
			Sync:     models.TaskQueue{Pending: []int64{1}, Running: nil},
			Download: models.TaskQueue{Pending: []int64{42, 43}, Running: []int64{44}},
		},
	}

	t.Run("table includes queue counters", func(t *testing.T) {
		out := TasksToTable(page)
		if !strings.Contains(out, "queues: sync 1 pending / 0 running, download 2 pending / 1 running") {
			t.Errorf("missing queue summary:\n%s", out)
		}
	})

	t.Run("table omits counters without queues", func(t *testing.T) {
		out := TasksToTable(&models.TaskPage{Entries: page.Entries, Total: 1, Page: 1})
		if strings.Contains(out, "queues:") {
			t.Errorf("unexpected queue summary:\n%s", out)
		}
	})

	t.Run("CSV", func(t *testing.T) {
		data, err := TasksToCSV(page)
		if err != nil {
			t.Fatalf("failed to render CSV: %v", err)
		}
		if !strings.Contains(string(data), "11,1,42,download,running,2026-03-14 09:30:00") {
			t.Errorf("unexpected CSV:\n%s", data)
		}
	})
}

func TestHistoryOutput(t *testing.T) {
	page := &models.HistoryPage{
		Entries: []models.HistoryEntry{
			{ID: 5, ListID: 1, VideoID: 9, EntityType: "download", Status: "error", Message: "403 forbidden", FinishedAt: testTime},
		},
		Total: 1, Page: 1,
	}

	out := HistoryToTable(page)
	if !strings.Contains(out, "403 forbidden") {
		t.Errorf("table missing message:\n%s", out)
	}

	data, err := HistoryToCSV(page)
	if err != nil {
		t.Fatalf("failed to render CSV: %v", err)
	}
	if !strings.Contains(string(data), "5,1,9,download,error,403 forbidden") {
		t.Errorf("unexpected CSV:\n%s", data)
	}
}

func TestVideosOutput(t *testing.T) {
	page := &models.VideoPage{
		Entries: []models.Video{
			{ID: 7, ListID: 2, Title: "shop tour", Status: "completed", Downloaded: true},
			{ID: 8, ListID: 2, Title: "bench build, part 1", Status: "error", Failed: true},
		},
		Total: 2, Page: 1,
	}

	out := VideosToTable(page)
	if !strings.Contains(out, "shop tour") || !strings.Contains(out, "bench build, part 1") {
		t.Errorf("table missing videos:\n%s", out)
	}

	data, err := VideosToCSV(page)
	if err != nil {
		t.Fatalf("failed to render CSV: %v", err)
	}
	// The comma in the title must be quoted.
	if !strings.Contains(string(data), `"bench build, part 1"`) {
		t.Errorf("expected quoted title in CSV:\n%s", data)
	}
}

func TestProgressToTable(t *testing.T) {
	m := models.ProgressMap{
		9: {VideoID: 9, Status: models.StatusError, Error: "disk full"},
		2: {VideoID: 2, Status: models.StatusDownloading, Percent: 61.5, Speed: "2.1MB/s", ETA: "00:12"},
		5: {VideoID: 5, Status: models.StatusPending},
	}

	out := ProgressToTable(m)

	if !strings.Contains(out, "61.5%") {
		t.Errorf("missing percent column:\n%s", out)
	}
	if !strings.Contains(out, "disk full") {
		t.Errorf("missing error column:\n%s", out)
	}

	// Rows are sorted by video id for stable output.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	for i, id := range []string{"2", "5", "9"} {
		if !strings.HasPrefix(lines[i+1], id) {
			t.Errorf("row %d should start with video %s:\n%s", i+1, id, out)
		}
	}
}
