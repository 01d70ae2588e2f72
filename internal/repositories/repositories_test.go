package repositories

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tannerhaus/vdx/internal/models"
	"github.com/tannerhaus/vdx/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func TestSettingsRepository(t *testing.T) {
	t.Run("get returns empty for unset keys", func(t *testing.T) {
		repo := NewSettingsRepository(setupTestDB(t))
		value, err := repo.Get("missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if value != "" {
			t.Errorf("expected empty value, got %q", value)
		}
	})

	t.Run("set and get round trip", func(t *testing.T) {
		repo := NewSettingsRepository(setupTestDB(t))
		if err := repo.Set("theme", "dark"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}
		value, err := repo.Get("theme")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if value != "dark" {
			t.Errorf("expected dark, got %q", value)
		}
	})

	t.Run("set replaces existing values", func(t *testing.T) {
		repo := NewSettingsRepository(setupTestDB(t))
		repo.Set("theme", "dark")
		if err := repo.Set("theme", "light"); err != nil {
			t.Fatalf("failed to replace: %v", err)
		}
		value, _ := repo.Get("theme")
		if value != "light" {
			t.Errorf("expected light, got %q", value)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		repo := NewSettingsRepository(setupTestDB(t))
		repo.Set("theme", "dark")
		if err := repo.Delete("theme"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if err := repo.Delete("theme"); err != nil {
			t.Errorf("deleting an absent key should not fail: %v", err)
		}
		value, _ := repo.Get("theme")
		if value != "" {
			t.Errorf("expected empty after delete, got %q", value)
		}
	})

	t.Run("origin override helpers", func(t *testing.T) {
		repo := NewSettingsRepository(setupTestDB(t))

		origin, err := repo.OriginOverride()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if origin != "" {
			t.Errorf("expected no override initially, got %q", origin)
		}

		if err := repo.SetOriginOverride("http://10.0.0.5:8080/api"); err != nil {
			t.Fatalf("failed to set override: %v", err)
		}
		origin, _ = repo.OriginOverride()
		if origin != "http://10.0.0.5:8080/api" {
			t.Errorf("unexpected override: %q", origin)
		}

		if err := repo.ClearOriginOverride(); err != nil {
			t.Fatalf("failed to clear override: %v", err)
		}
		origin, _ = repo.OriginOverride()
		if origin != "" {
			t.Errorf("expected cleared override, got %q", origin)
		}
	})
}

func TestSnapshotRepository(t *testing.T) {
	t.Run("load without save is ErrNoSnapshot", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))
		var page models.VideoListPage
		_, err := repo.Load("lists", &page)
		if !errors.Is(err, shared.ErrNoSnapshot) {
			t.Errorf("expected ErrNoSnapshot, got %v", err)
		}
	})

	t.Run("save and load round trip", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))
		saved := models.VideoListPage{
			Entries: []models.VideoList{{ID: 1, Name: "channel a", EntityType: "channel"}},
			Total:   1,
			Page:    1,
		}
		if err := repo.Save("lists", saved); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}

		var loaded models.VideoListPage
		fetchedAt, err := repo.Load("lists", &loaded)
		if err != nil {
			t.Fatalf("failed to load snapshot: %v", err)
		}
		if fetchedAt.IsZero() {
			t.Error("expected a fetched_at timestamp")
		}
		if len(loaded.Entries) != 1 || loaded.Entries[0].Name != "channel a" {
			t.Errorf("unexpected payload: %+v", loaded)
		}
	})

	t.Run("save replaces the previous snapshot", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))
		repo.Save("tasks", models.TaskPage{Total: 1})
		if err := repo.Save("tasks", models.TaskPage{Total: 7}); err != nil {
			t.Fatalf("failed to replace snapshot: %v", err)
		}

		var page models.TaskPage
		if _, err := repo.Load("tasks", &page); err != nil {
			t.Fatalf("failed to load snapshot: %v", err)
		}
		if page.Total != 7 {
			t.Errorf("expected replaced payload, got total %d", page.Total)
		}
	})

	t.Run("list and clear", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))
		repo.Save("lists", models.VideoListPage{})
		repo.Save("history", models.HistoryPage{})

		infos, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list snapshots: %v", err)
		}
		if len(infos) != 2 {
			t.Fatalf("expected 2 snapshots, got %d", len(infos))
		}
		for _, info := range infos {
			if info.FetchedAt.IsZero() {
				t.Errorf("snapshot %s has no timestamp", info.Resource)
			}
		}

		if err := repo.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		infos, _ = repo.List()
		if len(infos) != 0 {
			t.Errorf("expected empty cache, got %d entries", len(infos))
		}
	})
}

func TestMigrations(t *testing.T) {
	t.Run("running twice is a no-op", func(t *testing.T) {
		db := setupTestDB(t)
		if err := shared.RunMigrations(db); err != nil {
			t.Fatalf("second run failed: %v", err)
		}
	})

	t.Run("rollback drops the schema", func(t *testing.T) {
		db := setupTestDB(t)
		if err := shared.RollbackMigration(db); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='settings'").Scan(&name)
		if !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("expected settings table gone, got %v", err)
		}
	})
}
