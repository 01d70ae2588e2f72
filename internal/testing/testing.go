// package testing contains shared testing utilities
package testing

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// How an SSE test connection ends after its scripted frames.
const (
	EndHang    = "hang"    // stay open until the client disconnects or Push-ed frames run out
	EndClose   = "close"   // drop the connection without a sentinel (transport error)
	EndTimeout = "timeout" // send the idle-timeout sentinel, then close
)

// SSEServer is an http.Handler streaming scripted event frames. Each
// connection receives Frames in order, then follows End. Live frames can be
// pushed to the currently open connection with Push.
type SSEServer struct {
	Frames []string
	End    string

	mu     sync.Mutex
	total  int
	active int
	send   chan string
}

// NewSSEServer creates a handler that streams frames and then ends the
// connection per end (EndHang, EndClose, or EndTimeout).
func NewSSEServer(end string, frames ...string) *SSEServer {
	return &SSEServer{
		Frames: frames,
		End:    end,
		send:   make(chan string, 16),
	}
}

// Connections returns how many connections the server has accepted in total.
func (s *SSEServer) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Active returns how many connections are currently open.
func (s *SSEServer) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Push queues a live frame for the hanging connection.
func (s *SSEServer) Push(payload string) {
	s.send <- payload
}

func (s *SSEServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.total++
	s.active++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	writeFrame := func(payload string) {
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	for _, frame := range s.Frames {
		writeFrame(frame)
	}

	switch s.End {
	case EndTimeout:
		writeFrame(`{"status":"timeout"}`)
	case EndClose:
		// Fall through: returning drops the connection mid-stream.
	default:
		for {
			select {
			case <-r.Context().Done():
				return
			case payload := <-s.send:
				writeFrame(payload)
			}
		}
	}
}

// FailingWriter always returns an error on Write
type FailingWriter struct{}

func (f *FailingWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
