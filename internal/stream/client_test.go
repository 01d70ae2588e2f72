package stream

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tannerhaus/vdx/internal/shared"
	vdxtest "github.com/tannerhaus/vdx/internal/testing"
)

const waitFor = 2 * time.Second

func waitDone(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case <-sub.Done():
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for subscription to finish")
	}
}

func TestSubscribe(t *testing.T) {
	t.Run("dispatches each frame", func(t *testing.T) {
		sse := vdxtest.NewSSEServer(vdxtest.EndTimeout,
			`{"1":{"video_id":1,"status":"pending","percent":0}}`,
			`{"1":{"video_id":1,"status":"downloading","percent":50}}`,
		)
		srv := httptest.NewServer(sse)
		defer srv.Close()

		client := NewClient(nil, nil)
		frames := make(chan json.RawMessage, 4)
		sub := client.Subscribe(srv.URL, func(raw json.RawMessage) {
			frames <- raw
		}, func(err error) {
			t.Errorf("unexpected transport error: %v", err)
		})
		waitDone(t, sub)

		if got := len(frames); got != 2 {
			t.Fatalf("expected 2 frames, got %d", got)
		}
		raw := <-frames
		var m map[string]struct{ Percent float64 }
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("frame is not valid JSON: %v", err)
		}
	})

	t.Run("timeout sentinel closes without error", func(t *testing.T) {
		sse := vdxtest.NewSSEServer(vdxtest.EndTimeout, `{"1":{"video_id":1,"status":"pending","percent":0}}`)
		srv := httptest.NewServer(sse)
		defer srv.Close()

		var messages, timeouts, failures atomic.Int64
		client := NewClient(nil, nil)
		sub := client.SubscribeHandler(srv.URL, Handler{
			OnMessage: func(json.RawMessage) { messages.Add(1) },
			OnError:   func(error) { failures.Add(1) },
			OnTimeout: func() { timeouts.Add(1) },
		})
		waitDone(t, sub)

		if messages.Load() != 1 {
			t.Errorf("expected 1 message, got %d", messages.Load())
		}
		if timeouts.Load() != 1 {
			t.Errorf("expected 1 timeout, got %d", timeouts.Load())
		}
		if failures.Load() != 0 {
			t.Errorf("sentinel must not be reported as an error, got %d", failures.Load())
		}
		if !sub.Closed() {
			t.Error("subscription should be closed after the sentinel")
		}
	})

	t.Run("sentinel never reaches onMessage", func(t *testing.T) {
		sse := vdxtest.NewSSEServer(vdxtest.EndTimeout)
		srv := httptest.NewServer(sse)
		defer srv.Close()

		client := NewClient(nil, nil)
		sub := client.Subscribe(srv.URL, func(raw json.RawMessage) {
			t.Errorf("sentinel delivered as data: %s", raw)
		}, nil)
		waitDone(t, sub)
	})

	t.Run("transport drop reports one error", func(t *testing.T) {
		sse := vdxtest.NewSSEServer(vdxtest.EndClose, `{"1":{"video_id":1,"status":"pending","percent":0}}`)
		srv := httptest.NewServer(sse)
		defer srv.Close()

		var failures atomic.Int64
		errCh := make(chan error, 1)
		client := NewClient(nil, nil)
		sub := client.SubscribeHandler(srv.URL, Handler{
			OnError: func(err error) {
				failures.Add(1)
				errCh <- err
			},
			OnTimeout: func() { t.Error("a dropped connection is not a timeout") },
		})
		waitDone(t, sub)

		if failures.Load() != 1 {
			t.Fatalf("expected exactly 1 error callback, got %d", failures.Load())
		}
		if err := <-errCh; !errors.Is(err, shared.ErrStreamTransport) {
			t.Errorf("expected ErrStreamTransport, got %v", err)
		}
	})

	t.Run("malformed frames are skipped", func(t *testing.T) {
		sse := vdxtest.NewSSEServer(vdxtest.EndTimeout,
			`{"broken":`,
			`{"2":{"video_id":2,"status":"completed","percent":100}}`,
		)
		srv := httptest.NewServer(sse)
		defer srv.Close()

		var messages atomic.Int64
		client := NewClient(nil, nil)
		sub := client.Subscribe(srv.URL, func(json.RawMessage) {
			messages.Add(1)
		}, func(err error) {
			t.Errorf("malformed frame must not error the stream: %v", err)
		})
		waitDone(t, sub)

		if messages.Load() != 1 {
			t.Errorf("expected only the valid frame, got %d messages", messages.Load())
		}
	})

	t.Run("unreachable server errors once", func(t *testing.T) {
		var failures atomic.Int64
		client := NewClient(nil, nil)
		sub := client.Subscribe("http://127.0.0.1:1/stream", nil, func(error) {
			failures.Add(1)
		})
		waitDone(t, sub)

		if failures.Load() != 1 {
			t.Errorf("expected 1 error callback, got %d", failures.Load())
		}
	})

	t.Run("empty url is inert", func(t *testing.T) {
		client := NewClient(nil, nil)
		sub := client.Subscribe("", func(json.RawMessage) {
			t.Error("inert subscription must not deliver")
		}, func(err error) {
			t.Errorf("inert subscription must not error: %v", err)
		})

		if !sub.Closed() {
			t.Error("inert subscription should report closed")
		}
		waitDone(t, sub)
		sub.Close()
	})

	t.Run("close ends a live stream silently", func(t *testing.T) {
		sse := vdxtest.NewSSEServer(vdxtest.EndHang, `{"1":{"video_id":1,"status":"pending","percent":0}}`)
		srv := httptest.NewServer(sse)
		defer srv.Close()

		got := make(chan struct{}, 1)
		client := NewClient(nil, nil)
		sub := client.Subscribe(srv.URL, func(json.RawMessage) {
			select {
			case got <- struct{}{}:
			default:
			}
		}, func(err error) {
			t.Errorf("close must not surface as an error: %v", err)
		})

		select {
		case <-got:
		case <-time.After(waitFor):
			t.Fatal("timed out waiting for the first frame")
		}

		sub.Close()
		sub.Close() // idempotent
		waitDone(t, sub)

		if !sub.Closed() {
			t.Error("subscription should report closed")
		}
	})
}
