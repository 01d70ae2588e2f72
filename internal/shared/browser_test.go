package shared

import (
	"errors"
	"testing"
)

func TestDashboardURL(t *testing.T) {
	cases := map[string]string{
		"http://127.0.0.1:8080/api":  "http://127.0.0.1:8080",
		"http://127.0.0.1:8080/api/": "http://127.0.0.1:8080",
		"https://dl.example.com":     "https://dl.example.com",
	}
	for origin, want := range cases {
		if got := DashboardURL(origin); got != want {
			t.Errorf("DashboardURL(%q) = %q, want %q", origin, got, want)
		}
	}
}

func TestOpenBrowserUnsupportedPlatform(t *testing.T) {
	orig := goos
	goos = func() string { return "plan9" }
	defer func() { goos = orig }()

	err := OpenBrowser("http://127.0.0.1:8080")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
