package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/tannerhaus/vdx/internal/models"
	"github.com/tannerhaus/vdx/internal/shared"
)

// maxFrameSize bounds a single SSE frame. Progress maps for a busy server
// stay well under this.
const maxFrameSize = 1 << 20

// Client opens event-stream subscriptions against the download server.
type Client struct {
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a stream client. A nil httpClient falls back to
// [http.DefaultClient]; note the client used here must not carry a Timeout,
// which would kill long-lived streams.
func NewClient(httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Client{httpClient: httpClient, logger: logger}
}

// Handler receives the events of one subscription. OnMessage sees every JSON
// frame except the timeout sentinel. OnError fires at most once, on transport
// failure only. OnTimeout fires after the subscription closed cleanly because
// the server sent its idle-timeout sentinel; it is never combined with
// OnError.
type Handler struct {
	OnMessage func(json.RawMessage)
	OnError   func(error)
	OnTimeout func()
}

// Subscription is one consumer's live connection to a stream URL. It is
// owned exclusively by the subscriber and closed at most once.
type Subscription struct {
	id     string
	url    string
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool

	done chan struct{}
}

// Subscribe opens one connection to url and dispatches each JSON frame to
// onMessage. The timeout sentinel closes the subscription without invoking
// either callback; a transport failure closes it and invokes onError exactly
// once. The client never reconnects by itself.
//
// An empty url yields an inert subscription that never connects, for callers
// whose URL depends on a prerequisite fetch.
func (c *Client) Subscribe(url string, onMessage func(json.RawMessage), onError func(error)) *Subscription {
	return c.SubscribeHandler(url, Handler{OnMessage: onMessage, OnError: onError})
}

// SubscribeHandler is [Client.Subscribe] with the full [Handler], for
// consumers that implement their own timeout-reconnect policy.
func (c *Client) SubscribeHandler(url string, h Handler) *Subscription {
	sub := &Subscription{
		id:   uuid.New().String(),
		url:  url,
		done: make(chan struct{}),
	}

	if url == "" {
		sub.closed = true
		close(sub.done)
		return sub
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub.cancel = cancel

	go c.run(ctx, sub, h)
	return sub
}

// URL returns the stream URL this subscription was opened for.
func (s *Subscription) URL() string { return s.url }

// Closed reports whether the subscription no longer has a live connection.
func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Done is closed once the reader goroutine has fully stopped.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close synchronously ends the subscription. Frames racing with Close are
// dropped: the closed flag is set before callbacks are consulted.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
}

// markClosed flips the closed flag, reporting false if Close beat us to it.
func (s *Subscription) markClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	return true
}

// deliverable reports whether a frame read before Close may still be
// dispatched.
func (s *Subscription) deliverable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (c *Client) run(ctx context.Context, sub *Subscription, h Handler) {
	defer close(sub.done)

	fail := func(err error) {
		if !sub.markClosed() {
			return
		}
		sub.cancel()
		c.logger.Debug("stream transport failure", "url", sub.url, "err", err)
		if h.OnError != nil {
			h.OnError(fmt.Errorf("%w: %v", shared.ErrStreamTransport, err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sub.url, nil)
	if err != nil {
		fail(err)
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		fail(err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fail(fmt.Errorf("unexpected status %d", resp.StatusCode))
		return
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), maxFrameSize)

	var data []string
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if len(data) == 0 {
				continue
			}
			frame := strings.Join(data, "\n")
			data = data[:0]
			if !c.dispatch(sub, frame, h) {
				return
			}
			continue
		}

		if strings.HasPrefix(line, "data:") {
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
		// event:, id:, retry: and comment lines carry no semantics here; the
		// server puts everything inside the JSON body.
	}

	if ctx.Err() != nil {
		return
	}
	err = scanner.Err()
	if err == nil {
		// Stream ended without a sentinel: the transport broke.
		err = fmt.Errorf("stream ended unexpectedly")
	}
	fail(err)
}

// dispatch forwards one frame and reports whether the stream should keep
// reading.
func (c *Client) dispatch(sub *Subscription, frame string, h Handler) bool {
	raw := json.RawMessage(frame)

	if !json.Valid(raw) {
		// One malformed frame must not kill a long-lived view.
		c.logger.Debug("dropping malformed stream frame", "url", sub.url)
		return true
	}

	if models.IsTimeoutSentinel(raw) {
		// Expected idle close. Shut down cleanly; reconnecting is the
		// consumer's decision on its next external trigger.
		if sub.markClosed() {
			sub.cancel()
			if h.OnTimeout != nil {
				h.OnTimeout()
			}
		}
		return false
	}

	if !sub.deliverable() {
		return false
	}
	if h.OnMessage != nil {
		h.OnMessage(raw)
	}
	return true
}
