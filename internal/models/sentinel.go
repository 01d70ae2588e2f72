package models

import "encoding/json"

// timeoutStatus is the reserved value the server sends before closing an idle
// stream: {"status":"timeout"}. Real payloads for every streamed resource are
// arrays, integer-keyed maps, or objects carrying stats/tasks/entries keys, so
// the shape never collides with data.
const timeoutStatus = "timeout"

type sentinelProbe struct {
	Status string `json:"status"`
}

// IsTimeoutSentinel reports whether raw is the server's idle-timeout sentinel.
// The sentinel signals an intentional close and must never be treated as a
// data update.
func IsTimeoutSentinel(raw json.RawMessage) bool {
	var probe sentinelProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Status == timeoutStatus
}
