// package listwatch implements the dedicated change stream for one video
// list: combined stats, active-task snapshots, and changed-video hints.
//
// Each watcher owns at most one connection, scoped to its list id and
// independent of every other list. A server idle timeout schedules exactly
// one delayed reconnect attempt (while enabled and active); a transport error
// does not: the next enable or activity edge is the reconnection trigger, so
// many open views cannot stampede a recovering server.
package listwatch

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tannerhaus/vdx/internal/api"
	"github.com/tannerhaus/vdx/internal/models"
	"github.com/tannerhaus/vdx/internal/shared"
	"github.com/tannerhaus/vdx/internal/stream"
	"golang.org/x/time/rate"
)

// DefaultReconnectDelay is the pause before the single reconnect attempt
// after a server idle timeout.
const DefaultReconnectDelay = time.Second

// Opts configures a [Watcher].
type Opts struct {
	Client   *stream.Client
	Origin   string
	ListID   int64
	Activity stream.Activity
	Logger   *log.Logger
	// OnUpdate receives each full-replacement update.
	OnUpdate func(models.VideoListUpdate)
	// ReconnectDelay overrides [DefaultReconnectDelay].
	ReconnectDelay time.Duration
	// MinConnectInterval spaces out connect attempts. Zero means 500ms.
	MinConnectInterval time.Duration
}

// Watcher keeps one list's view consistent with server state.
type Watcher struct {
	client   *stream.Client
	url      string
	listID   int64
	activity stream.Activity
	logger   *log.Logger
	onUpdate func(models.VideoListUpdate)
	delay    time.Duration
	limiter  *rate.Limiter
	machine  stream.Machine

	mu      sync.Mutex
	enabled bool
	gen     uint64
	conn    *stream.Subscription
	retry   *time.Timer

	stopActivity func()
	stopCh       chan struct{}
	stopOnce     sync.Once
}

// New creates a watcher for one list. No connection is opened until
// [Watcher.Start].
func New(opts Opts) *Watcher {
	if opts.Activity == nil {
		opts.Activity = stream.AlwaysActive()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Client == nil {
		opts.Client = stream.NewClient(nil, opts.Logger)
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	interval := opts.MinConnectInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	w := &Watcher{
		client:   opts.Client,
		url:      api.ListStatsStreamURL(opts.Origin, opts.ListID),
		listID:   opts.ListID,
		activity: opts.Activity,
		logger:   opts.Logger,
		onUpdate: opts.OnUpdate,
		delay:    opts.ReconnectDelay,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		stopCh:   make(chan struct{}),
	}

	events, cancel := w.activity.Subscribe()
	w.stopActivity = cancel
	go w.watchActivity(events)

	return w
}

// Start enables the watcher and connects if the surface is active.
func (w *Watcher) Start() { w.SetEnabled(true) }

// SetEnabled toggles the subscription. Disabling always closes the
// connection and cancels any pending reconnect.
func (w *Watcher) SetEnabled(enabled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.enabled = enabled
	if enabled {
		w.connectLocked()
	} else {
		w.closeConnLocked()
	}
}

// Stop disables the watcher and releases the activity subscription.
// Idempotent; the connection never outlives its owner.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.stopActivity()
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	w.enabled = false
	w.closeConnLocked()
}

// Connected reports whether the stream is currently open.
func (w *Watcher) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn != nil
}

// State exposes the lifecycle state for diagnostics.
func (w *Watcher) State() stream.State { return w.machine.State() }

func (w *Watcher) watchActivity(events <-chan bool) {
	for {
		select {
		case <-w.stopCh:
			return
		case active, ok := <-events:
			if !ok {
				return
			}
			w.mu.Lock()
			if active {
				w.connectLocked()
			} else {
				w.closeConnLocked()
			}
			w.mu.Unlock()
		}
	}
}

// connectLocked opens the stream when enabled, active, targeted at a real
// list, and not already connected. Enable and activity edges share this path
// under one lock, so coinciding triggers open a single connection. When the
// limiter defers the attempt, the dial is scheduled for when the reserved
// token matures; an enabled watcher on an active surface always reconnects
// eventually.
func (w *Watcher) connectLocked() {
	if w.conn != nil || !w.enabled || w.listID == 0 || !w.activity.Active() {
		return
	}
	if w.retry != nil {
		// A dial is already scheduled.
		return
	}
	if delay := w.limiter.Reserve().Delay(); delay > 0 {
		w.logger.Debug("list stream connect deferred by limiter", "list_id", w.listID, "delay", delay)
		w.retry = time.AfterFunc(delay, func() {
			select {
			case <-w.stopCh:
				return
			default:
			}
			w.mu.Lock()
			defer w.mu.Unlock()
			w.retry = nil
			w.dialLocked()
		})
		return
	}
	w.dialLocked()
}

// dialLocked opens the connection. The limiter token is already spent, but
// the gates are re-checked: a deferred dial may fire after a disable or a
// blur.
func (w *Watcher) dialLocked() {
	if w.conn != nil || !w.enabled || w.listID == 0 || !w.activity.Active() {
		return
	}

	w.machine.To(stream.StateConnecting)
	w.gen++
	gen := w.gen

	w.conn = w.client.SubscribeHandler(w.url, stream.Handler{
		OnMessage: func(raw json.RawMessage) { w.onFrame(gen, raw) },
		OnError:   func(err error) { w.onError(gen, err) },
		OnTimeout: func() { w.onTimeout(gen) },
	})
}

func (w *Watcher) closeConnLocked() {
	w.cancelRetryLocked()
	if w.conn == nil {
		return
	}
	w.conn.Close()
	w.conn = nil
	w.machine.To(stream.StateIdle)
}

func (w *Watcher) cancelRetryLocked() {
	if w.retry != nil {
		w.retry.Stop()
		w.retry = nil
	}
}

func (w *Watcher) onFrame(gen uint64, raw json.RawMessage) {
	var update models.VideoListUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		w.logger.Debug("dropping malformed list update", "list_id", w.listID, "err", err)
		return
	}

	w.mu.Lock()
	if gen != w.gen || w.conn == nil {
		w.mu.Unlock()
		return
	}
	w.machine.To(stream.StateOpen)
	onUpdate := w.onUpdate
	w.mu.Unlock()

	if onUpdate != nil {
		onUpdate(update)
	}
}

// onError handles transport failure: close and wait for an external trigger.
// Deliberately no timer here; "network broke" and "server said stop" get
// different recovery policies.
func (w *Watcher) onError(gen uint64, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen || w.conn == nil {
		return
	}

	w.conn = nil
	w.machine.To(stream.StateErrored)
	w.machine.To(stream.StateIdle)
	w.logger.Warn("list stream dropped", "list_id", w.listID, "err", err)
}

// onTimeout handles the server's idle close: schedule one bounded reconnect
// attempt, honored only if the watcher is still enabled and active when it
// fires.
func (w *Watcher) onTimeout(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen || w.conn == nil {
		return
	}

	w.conn = nil
	w.machine.To(stream.StateTimedOut)
	w.machine.To(stream.StateIdle)
	w.logger.Debug("list stream closed by server idle timeout", "list_id", w.listID)

	w.cancelRetryLocked()
	w.retry = time.AfterFunc(w.delay, func() {
		select {
		case <-w.stopCh:
			return
		default:
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		w.retry = nil
		w.connectLocked()
	})
}
