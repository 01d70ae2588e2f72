package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	vdxtest "github.com/tannerhaus/vdx/internal/testing"

	"github.com/tannerhaus/vdx/internal/shared"
)

func TestClient(t *testing.T) {
	t.Run("FetchProgress decodes the map", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/progress" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if accept := r.Header.Get("Accept"); accept != "application/json" {
				t.Errorf("unexpected Accept header %q", accept)
			}
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"5":{"video_id":5,"status":"downloading","percent":60}}`)
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", nil)
		m, err := client.FetchProgress(context.Background())
		if err != nil {
			t.Fatalf("failed to fetch progress: %v", err)
		}
		if m[5].Percent != 60 {
			t.Errorf("expected percent 60, got %v", m[5].Percent)
		}
	})

	t.Run("FetchLists passes filters through", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("entity_type"); got != "playlist" {
				t.Errorf("expected entity_type=playlist, got %q", got)
			}
			if got := r.URL.Query().Get("page"); got != "2" {
				t.Errorf("expected page=2, got %q", got)
			}
			io.WriteString(w, `{"entries":[{"id":1,"name":"mixes","entity_type":"playlist"}],"total":1,"page":2,"page_size":25}`)
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", nil)
		page, err := client.FetchLists(context.Background(), Filters{EntityType: "playlist"}, Pagination{Page: 2})
		if err != nil {
			t.Fatalf("failed to fetch lists: %v", err)
		}
		if len(page.Entries) != 1 || page.Entries[0].Name != "mixes" {
			t.Errorf("unexpected page contents: %+v", page)
		}
	})

	t.Run("FetchListStats targets the list endpoint", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/lists/9/stats" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			io.WriteString(w, `{"stats":{"total_videos":4,"downloaded":2},"tasks":{"sync":{"pending":[],"running":[]},"download":{"pending":[7],"running":[]}},"changed_video_ids":[7]}`)
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", nil)
		update, err := client.FetchListStats(context.Background(), 9)
		if err != nil {
			t.Fatalf("failed to fetch list stats: %v", err)
		}
		if update.Stats.TotalVideos != 4 {
			t.Errorf("expected 4 total videos, got %d", update.Stats.TotalVideos)
		}
		if len(update.Tasks.Download.Pending) != 1 {
			t.Errorf("expected one pending download, got %+v", update.Tasks.Download)
		}
	})

	t.Run("non-2xx becomes ErrAPIRequest", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", nil)
		_, err := client.FetchTasks(context.Background(), Filters{}, Pagination{})
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("transport errors surface", func(t *testing.T) {
		rt := vdxtest.NewMockRoundTripper(nil, errors.New("connection refused"))
		client := NewClient("http://example.invalid/api", &http.Client{Transport: rt})

		if _, err := client.FetchHistory(context.Background(), Filters{}, Pagination{}); err == nil {
			t.Error("expected transport error")
		}
	})

	t.Run("malformed body is a decode error", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(`{"entries":`)),
			Header:     http.Header{},
		}
		client := NewClient("http://example.invalid/api", &http.Client{Transport: vdxtest.NewMockRoundTripper(resp, nil)})

		if _, err := client.FetchLists(context.Background(), Filters{}, Pagination{}); err == nil {
			t.Error("expected decode error for truncated body")
		}
	})

	t.Run("defaults fill origin and client", func(t *testing.T) {
		client := NewClient("", nil)
		if client.Origin() != shared.DefaultOrigin {
			t.Errorf("expected default origin, got %s", client.Origin())
		}
	})
}
