package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tannerhaus/vdx/internal/shared"
)

// SnapshotRepository caches the last-known JSON payload per server resource
// so one-shot commands can show something useful while the server is down.
type SnapshotRepository struct {
	db *sql.DB
}

// SnapshotInfo describes one cached resource.
type SnapshotInfo struct {
	Resource  string
	FetchedAt time.Time
}

// NewSnapshotRepository creates a snapshot repository backed by db.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save stores payload as the current snapshot for resource.
func (r *SnapshotRepository) Save(resource string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", resource, err)
	}

	_, err = r.db.Exec(`
		INSERT INTO snapshots (resource, payload, fetched_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(resource) DO UPDATE SET payload = excluded.payload, fetched_at = CURRENT_TIMESTAMP
	`, resource, string(data))
	if err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", resource, err)
	}
	return nil
}

// Load decodes the cached snapshot for resource into v and returns when it
// was fetched. Returns [shared.ErrNoSnapshot] when nothing is cached.
func (r *SnapshotRepository) Load(resource string, v any) (time.Time, error) {
	var payload string
	var fetchedAt time.Time
	err := r.db.QueryRow("SELECT payload, fetched_at FROM snapshots WHERE resource = ?", resource).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: %s", shared.ErrNoSnapshot, resource)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read snapshot %s: %w", resource, err)
	}

	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode snapshot %s: %w", resource, err)
	}
	return fetchedAt, nil
}

// List returns the cached resources, newest first.
func (r *SnapshotRepository) List() ([]SnapshotInfo, error) {
	rows, err := r.db.Query("SELECT resource, fetched_at FROM snapshots ORDER BY fetched_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var infos []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.Resource, &info.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Clear drops every cached snapshot.
func (r *SnapshotRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM snapshots"); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}
