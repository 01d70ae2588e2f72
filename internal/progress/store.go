// package progress implements the shared progress store: one event-stream
// connection multiplexed across every consumer of per-video download
// progress.
//
// The connection is opened lazily when the subscriber count goes 0→1 (and the
// surface is active) and torn down when it returns to zero. Each message
// replaces the shared map wholesale; subscribers all observe the same
// snapshot value. After a transport error or a server idle timeout the store
// stays closed until the next subscribe or activity edge, so a server that
// just dropped an idle link is never hammered with immediate retries.
package progress

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/tannerhaus/vdx/internal/api"
	"github.com/tannerhaus/vdx/internal/models"
	"github.com/tannerhaus/vdx/internal/shared"
	"github.com/tannerhaus/vdx/internal/stream"
	"golang.org/x/time/rate"
)

// StoreOpts configures a [Store].
type StoreOpts struct {
	Client   *stream.Client
	Origin   string
	Activity stream.Activity
	Logger   *log.Logger
	// MinConnectInterval spaces out connect attempts. Zero means 500ms.
	MinConnectInterval time.Duration
}

// Store owns the single shared progress stream connection.
type Store struct {
	client   *stream.Client
	url      string
	activity stream.Activity
	logger   *log.Logger
	limiter  *rate.Limiter
	machine  stream.Machine

	mu       sync.Mutex
	refs     int
	gen      uint64
	conn     *stream.Subscription
	retry    *time.Timer
	snapshot models.ProgressMap
	handles  map[string]*Handle

	stopActivity func()
	stopCh       chan struct{}
	stopOnce     sync.Once
}

// Handle is one consumer's counted reference to the shared stream. Closing
// the last handle tears the connection down and clears the snapshot.
type Handle struct {
	id    string
	store *Store
	ch    chan models.ProgressMap
	once  sync.Once
}

// NewStore creates the store and starts watching the activity signal. The
// connection is not opened until the first subscriber arrives.
func NewStore(opts StoreOpts) *Store {
	if opts.Activity == nil {
		opts.Activity = stream.AlwaysActive()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Client == nil {
		opts.Client = stream.NewClient(nil, opts.Logger)
	}
	interval := opts.MinConnectInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	s := &Store{
		client:   opts.Client,
		url:      api.ProgressStreamURL(opts.Origin),
		activity: opts.Activity,
		logger:   opts.Logger,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		handles:  make(map[string]*Handle),
		stopCh:   make(chan struct{}),
	}

	events, cancel := s.activity.Subscribe()
	s.stopActivity = cancel
	go s.watchActivity(events)

	return s
}

// Subscribe registers a consumer and opens the shared connection on the 0→1
// transition while the surface is active.
func (s *Store) Subscribe() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := &Handle{
		id:    uuid.New().String(),
		store: s,
		ch:    make(chan models.ProgressMap, 1),
	}
	s.handles[h.id] = h
	s.refs++

	s.connectLocked()
	return h
}

// Updates delivers full-replacement snapshots. The channel holds only the
// latest map; slow consumers skip intermediate ticks, never block the stream.
func (h *Handle) Updates() <-chan models.ProgressMap { return h.ch }

// Snapshot returns the current shared map, or nil before the first message.
func (h *Handle) Snapshot() models.ProgressMap {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return h.store.snapshot
}

// Close releases the reference. Idempotent.
func (h *Handle) Close() {
	h.once.Do(func() {
		s := h.store
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.handles, h.id)
		s.refs--
		if s.refs <= 0 {
			s.refs = 0
			// Stale progress must not leak into the next subscription cycle.
			s.snapshot = nil
			s.closeConnLocked()
		}
	})
}

// Refs returns the current subscriber count.
func (s *Store) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

// Connected reports whether the shared connection is currently open.
func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// State exposes the lifecycle state for diagnostics.
func (s *Store) State() stream.State { return s.machine.State() }

// Shutdown closes the connection and stops the activity watcher. The store
// must not be used afterwards.
func (s *Store) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.stopActivity()
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	s.closeConnLocked()
}

func (s *Store) watchActivity(events <-chan bool) {
	for {
		select {
		case <-s.stopCh:
			return
		case active, ok := <-events:
			if !ok {
				return
			}
			s.mu.Lock()
			if active {
				s.connectLocked()
			} else {
				s.closeConnLocked()
			}
			s.mu.Unlock()
		}
	}
}

// connectLocked opens the shared connection when all gates pass: at least one
// subscriber, active surface, no live connection. Both the subscribe path and
// the activity path funnel through here under the same lock, so two triggers
// in the same tick cannot double-open. When the limiter defers the attempt,
// the dial is scheduled for when the reserved token matures; with refs>0 and
// an active surface the connection always opens eventually.
func (s *Store) connectLocked() {
	if s.conn != nil || s.refs == 0 || !s.activity.Active() {
		return
	}
	if s.retry != nil {
		// A dial is already scheduled.
		return
	}
	if delay := s.limiter.Reserve().Delay(); delay > 0 {
		s.logger.Debug("progress stream connect deferred by limiter", "delay", delay)
		s.retry = time.AfterFunc(delay, func() {
			select {
			case <-s.stopCh:
				return
			default:
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			s.retry = nil
			s.dialLocked()
		})
		return
	}
	s.dialLocked()
}

// dialLocked opens the connection. The limiter token is already spent, but
// the gates are re-checked: a deferred dial fires after subscribe and
// activity state may have moved on.
func (s *Store) dialLocked() {
	if s.conn != nil || s.refs == 0 || !s.activity.Active() {
		return
	}

	s.machine.To(stream.StateConnecting)
	s.gen++
	gen := s.gen

	s.conn = s.client.SubscribeHandler(s.url, stream.Handler{
		OnMessage: func(raw json.RawMessage) { s.onFrame(gen, raw) },
		OnError:   func(err error) { s.onDrop(gen, stream.StateErrored, err) },
		OnTimeout: func() { s.onDrop(gen, stream.StateTimedOut, nil) },
	})
}

func (s *Store) cancelRetryLocked() {
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
}

func (s *Store) closeConnLocked() {
	s.cancelRetryLocked()
	if s.conn == nil {
		return
	}
	s.conn.Close()
	s.conn = nil
	s.machine.To(stream.StateIdle)
}

// onFrame replaces the shared snapshot and fans it out.
func (s *Store) onFrame(gen uint64, raw json.RawMessage) {
	var m models.ProgressMap
	if err := json.Unmarshal(raw, &m); err != nil {
		s.logger.Debug("dropping malformed progress payload", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.conn == nil {
		// A frame from a connection we already abandoned.
		return
	}

	s.machine.To(stream.StateOpen)
	s.snapshot = m
	for _, h := range s.handles {
		h.push(m)
	}
}

// onDrop records that the connection closed itself. Reconnection waits for
// the next subscribe or activity edge rather than looping here.
func (s *Store) onDrop(gen uint64, state stream.State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.conn == nil {
		return
	}

	s.conn = nil
	s.machine.To(state)
	s.machine.To(stream.StateIdle)
	if err != nil {
		s.logger.Warn("progress stream dropped", "err", err)
	} else {
		s.logger.Debug("progress stream closed by server idle timeout")
	}
}

// push is latest-wins delivery on a 1-buffered channel.
func (h *Handle) push(m models.ProgressMap) {
	select {
	case h.ch <- m:
		return
	default:
	}
	select {
	case <-h.ch:
	default:
	}
	select {
	case h.ch <- m:
	default:
	}
}
