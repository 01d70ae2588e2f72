package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tannerhaus/vdx/internal/models"
	"github.com/tannerhaus/vdx/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Logging logs each request's method, path, and duration.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}

// Opts configures the mock server.
type Opts struct {
	Addr   string
	Logger *log.Logger
	// Tick is the interval between stream pushes.
	Tick time.Duration
	// IdleTimeout is how long a stream runs before the server sends the
	// timeout sentinel and closes it.
	IdleTimeout time.Duration
}

// Server is the mock download server.
type Server struct {
	addr        string
	logger      *log.Logger
	tick        time.Duration
	idleTimeout time.Duration

	mu       sync.Mutex
	lists    []models.VideoList
	videos   map[int64][]models.Video
	progress models.ProgressMap
	tasks    []models.Task
	history  []models.HistoryEntry
}

// New creates a mock server with a small synthetic dataset.
func New(opts Opts) *Server {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 2 * time.Minute
	}

	s := &Server{
		addr:        opts.Addr,
		logger:      opts.Logger,
		tick:        opts.Tick,
		idleTimeout: opts.IdleTimeout,
	}
	s.seed()
	return s
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: Logging(s.logger)(s.Routes()),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("mock download server listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Routes registers every REST endpoint and its /stream counterpart.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/progress", s.handleProgress)
	mux.HandleFunc("GET /api/progress/stream", s.stream(func() any { return s.snapshotProgress() }))
	mux.HandleFunc("GET /api/lists", s.handleLists)
	mux.HandleFunc("GET /api/lists/stream", s.stream(func() any { return s.snapshotLists() }))
	mux.HandleFunc("GET /api/tasks", s.handleTasks)
	mux.HandleFunc("GET /api/tasks/stream", s.stream(func() any { return s.snapshotTasks() }))
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/history/stream", s.stream(func() any { return s.snapshotHistory() }))
	mux.HandleFunc("GET /api/lists/{id}/videos", s.handleListVideos)
	mux.HandleFunc("GET /api/lists/{id}/stats", s.handleListStats)
	mux.HandleFunc("GET /api/lists/{id}/stats/stream", s.streamList)
	mux.HandleFunc("GET /api/lists/{id}/tasks", s.handleTasks)
	mux.HandleFunc("GET /api/lists/{id}/history", s.handleHistory)

	return mux
}

func (s *Server) seed() {
	now := time.Now()
	s.lists = []models.VideoList{
		{ID: 1, Name: "conference talks", EntityType: "channel", SourceURL: "https://example.com/c/talks", Enabled: true, CreatedAt: now, UpdatedAt: now},
		{ID: 2, Name: "synth tutorials", EntityType: "playlist", SourceURL: "https://example.com/p/synth", Enabled: true, CreatedAt: now, UpdatedAt: now},
	}
	s.videos = map[int64][]models.Video{
		1: {
			{ID: 11, ListID: 1, Title: "Opening keynote", Status: models.StatusDownloading, PublishedAt: now},
			{ID: 12, ListID: 1, Title: "Closing panel", Status: models.StatusPending, PublishedAt: now},
		},
		2: {
			{ID: 21, ListID: 2, Title: "Filters explained", Status: models.StatusCompleted, Downloaded: true, PublishedAt: now},
		},
	}
	s.progress = models.ProgressMap{
		11: {VideoID: 11, Status: models.StatusDownloading, Percent: 12.5, Speed: "2.4MB/s", ETA: "3m10s"},
	}
	s.tasks = []models.Task{
		{ID: 101, ListID: 1, VideoID: 11, EntityType: "download", Status: "running", CreatedAt: now},
		{ID: 102, ListID: 1, VideoID: 12, EntityType: "download", Status: "pending", CreatedAt: now},
	}
	s.history = []models.HistoryEntry{
		{ID: 201, ListID: 2, VideoID: 21, EntityType: "download", Status: models.StatusCompleted, FinishedAt: now.Add(-time.Hour)},
	}
}

// advance mutates the synthetic progress so streams show movement.
func (s *Server) advance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(models.ProgressMap, len(s.progress))
	for id, p := range s.progress {
		p.Percent += 5 + rand.Float64()*10
		if p.Percent >= 100 {
			p.Percent = 100
			p.Status = models.StatusCompleted
			p.Speed = ""
			p.ETA = ""
		}
		next[id] = p
	}
	s.progress = next
}

func (s *Server) snapshotProgress() models.ProgressMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(models.ProgressMap, len(s.progress))
	for id, p := range s.progress {
		out[id] = p
	}
	return out
}

func (s *Server) snapshotLists() models.VideoListPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]models.VideoList, len(s.lists))
	copy(entries, s.lists)
	for i := range entries {
		entries[i].Stats = s.statsForLocked(entries[i].ID)
	}
	return models.VideoListPage{Entries: entries, Total: len(entries), Page: 1, PageSize: len(entries)}
}

func (s *Server) snapshotTasks() models.TaskPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]models.Task, len(s.tasks))
	copy(entries, s.tasks)
	queues := s.queuesLocked()
	return models.TaskPage{Entries: entries, Total: len(entries), Page: 1, PageSize: len(entries), Queues: &queues}
}

func (s *Server) snapshotHistory() models.HistoryPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]models.HistoryEntry, len(s.history))
	copy(entries, s.history)
	return models.HistoryPage{Entries: entries, Total: len(entries), Page: 1, PageSize: len(entries)}
}

func (s *Server) statsForLocked(listID int64) models.VideoListStats {
	var stats models.VideoListStats
	for _, v := range s.videos[listID] {
		stats.TotalVideos++
		switch {
		case v.Blacklisted:
			stats.Blacklisted++
		case v.Failed:
			stats.Failed++
		case v.Downloaded:
			stats.Downloaded++
		default:
			stats.Pending++
		}
	}
	return stats
}

func (s *Server) queuesLocked() models.ActiveTasks {
	var queues models.ActiveTasks
	for _, t := range s.tasks {
		q := &queues.Download
		if t.EntityType == "sync" {
			q = &queues.Sync
		}
		switch t.Status {
		case "pending":
			q.Pending = append(q.Pending, t.ID)
		case "running":
			q.Running = append(q.Running, t.ID)
		}
	}
	return queues
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshotProgress())
}

func (s *Server) handleLists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshotLists())
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshotTasks())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshotHistory())
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	listID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid list id", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	videos := make([]models.Video, len(s.videos[listID]))
	copy(videos, s.videos[listID])
	s.mu.Unlock()

	writeJSON(w, models.VideoPage{Entries: videos, Total: len(videos), Page: 1, PageSize: len(videos)})
}

func (s *Server) handleListStats(w http.ResponseWriter, r *http.Request) {
	listID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid list id", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.listUpdate(listID))
}

func (s *Server) listUpdate(listID int64) models.VideoListUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []int64
	for id := range s.progress {
		changed = append(changed, id)
	}
	return models.VideoListUpdate{
		Stats:           s.statsForLocked(listID),
		Tasks:           s.queuesLocked(),
		ChangedVideoIDs: changed,
	}
}

// stream serves an event stream pushing snapshot() every tick until the idle
// timeout, then sends the sentinel and closes, mirroring the real server.
func (s *Server) stream(snapshot func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.serveStream(w, r, snapshot)
	}
}

func (s *Server) streamList(w http.ResponseWriter, r *http.Request) {
	listID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid list id", http.StatusBadRequest)
		return
	}
	s.serveStream(w, r, func() any { return s.listUpdate(listID) })
}

func (s *Server) serveStream(w http.ResponseWriter, r *http.Request, snapshot func() any) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	push := func(v any) bool {
		data, err := json.Marshal(v)
		if err != nil {
			s.logger.Error("failed to encode stream payload", "err", err)
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !push(snapshot()) {
		return
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	deadline := time.NewTimer(s.idleTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-deadline.C:
			push(map[string]string{"status": "timeout"})
			return
		case <-ticker.C:
			s.advance()
			if !push(snapshot()) {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
