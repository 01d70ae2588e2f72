package shared

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

var goos = func() string { return runtime.GOOS }

// DashboardURL derives the download server's web dashboard address from an
// API origin by stripping the API path prefix. An origin without the prefix
// is already the dashboard address.
func DashboardURL(origin string) string {
	return strings.TrimSuffix(strings.TrimRight(origin, "/"), "/api")
}

// OpenBrowser launches the default system browser at url. Supports macOS,
// Linux, and Windows.
func OpenBrowser(url string) error {
	var name string
	var args []string

	switch rt := goos(); rt {
	case "darwin":
		name = "open"
	case "linux":
		name = "xdg-open"
	case "windows":
		name, args = "cmd", []string{"/c", "start"}
	default:
		return fmt.Errorf("%w: unsupported platform %s", ErrInvalidInput, rt)
	}

	if err := exec.Command(name, append(args, url)...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
