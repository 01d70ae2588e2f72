package models

import (
	"encoding/json"
	"testing"
)

func TestIsTimeoutSentinel(t *testing.T) {
	t.Run("matches the sentinel", func(t *testing.T) {
		if !IsTimeoutSentinel(json.RawMessage(`{"status":"timeout"}`)) {
			t.Error("expected sentinel to be detected")
		}
	})

	t.Run("matches with surrounding whitespace", func(t *testing.T) {
		if !IsTimeoutSentinel(json.RawMessage(" {\"status\": \"timeout\"} ")) {
			t.Error("expected sentinel to be detected")
		}
	})

	t.Run("ignores other status values", func(t *testing.T) {
		if IsTimeoutSentinel(json.RawMessage(`{"status":"downloading"}`)) {
			t.Error("a task status object is not the sentinel")
		}
	})

	t.Run("ignores progress map payloads", func(t *testing.T) {
		payload := `{"42":{"video_id":42,"status":"downloading","percent":17.5}}`
		if IsTimeoutSentinel(json.RawMessage(payload)) {
			t.Error("a progress map is not the sentinel")
		}
	})

	t.Run("ignores list update payloads", func(t *testing.T) {
		payload := `{"stats":{"total_videos":10},"tasks":{"sync":{"pending":[],"running":[]},"download":{"pending":[],"running":[]}},"changed_video_ids":[1]}`
		if IsTimeoutSentinel(json.RawMessage(payload)) {
			t.Error("a list update is not the sentinel")
		}
	})

	t.Run("ignores arrays and invalid JSON", func(t *testing.T) {
		if IsTimeoutSentinel(json.RawMessage(`[1,2,3]`)) {
			t.Error("an array is not the sentinel")
		}
		if IsTimeoutSentinel(json.RawMessage(`{"status":`)) {
			t.Error("invalid JSON is not the sentinel")
		}
	})
}

func TestProgressMapDecoding(t *testing.T) {
	payload := `{"7":{"video_id":7,"status":"downloading","percent":42.5,"speed":"1.2MB/s","eta":"00:31"},"9":{"video_id":9,"status":"error","percent":0,"error":"403 forbidden"}}`

	var m ProgressMap
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		t.Fatalf("failed to decode progress map: %v", err)
	}

	if len(m) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m))
	}
	if m[7].Status != StatusDownloading || m[7].Percent != 42.5 {
		t.Errorf("unexpected entry for video 7: %+v", m[7])
	}
	if m[9].Error != "403 forbidden" {
		t.Errorf("expected error message preserved, got %q", m[9].Error)
	}
}
