package stream

import (
	"testing"
	"time"
)

func TestSignal(t *testing.T) {
	t.Run("reports the initial state", func(t *testing.T) {
		if !NewSignal(true).Active() {
			t.Error("expected active signal")
		}
		if NewSignal(false).Active() {
			t.Error("expected inactive signal")
		}
	})

	t.Run("notifies subscribers on change", func(t *testing.T) {
		s := NewSignal(true)
		events, cancel := s.Subscribe()
		defer cancel()

		s.Set(false)

		select {
		case active := <-events:
			if active {
				t.Error("expected inactive notification")
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for notification")
		}
	})

	t.Run("suppresses no-op transitions", func(t *testing.T) {
		s := NewSignal(true)
		events, cancel := s.Subscribe()
		defer cancel()

		s.Set(true)

		select {
		case <-events:
			t.Error("unchanged state must not notify")
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("cancel stops delivery", func(t *testing.T) {
		s := NewSignal(true)
		events, cancel := s.Subscribe()
		cancel()

		s.Set(false)

		select {
		case <-events:
			t.Error("cancelled subscriber must not be notified")
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("fans out to every subscriber", func(t *testing.T) {
		s := NewSignal(false)
		first, cancelFirst := s.Subscribe()
		second, cancelSecond := s.Subscribe()
		defer cancelFirst()
		defer cancelSecond()

		s.Set(true)

		for _, events := range []<-chan bool{first, second} {
			select {
			case active := <-events:
				if !active {
					t.Error("expected active notification")
				}
			case <-time.After(time.Second):
				t.Fatal("timed out waiting for notification")
			}
		}
	})
}

func TestAlwaysActive(t *testing.T) {
	a := AlwaysActive()
	if !a.Active() {
		t.Error("AlwaysActive must report active")
	}

	events, cancel := a.Subscribe()
	defer cancel()
	select {
	case <-events:
		t.Error("AlwaysActive must never notify")
	case <-time.After(10 * time.Millisecond):
	}
}
