package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// OriginKey is the settings key holding the API-origin override. It takes
// priority over both the VDX_API_URL environment variable and the config
// file.
const OriginKey = "api_origin"

// SettingsRepository persists key/value settings in the local cache database.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a settings repository backed by db.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the value for key, or "" when the key is unset.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// Set stores or replaces the value for key.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (r *SettingsRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// OriginOverride returns the stored API-origin override, or "" when unset.
func (r *SettingsRepository) OriginOverride() (string, error) {
	return r.Get(OriginKey)
}

// SetOriginOverride stores the API-origin override.
func (r *SettingsRepository) SetOriginOverride(origin string) error {
	return r.Set(OriginKey, origin)
}

// ClearOriginOverride removes the API-origin override.
func (r *SettingsRepository) ClearOriginOverride() error {
	return r.Delete(OriginKey)
}
