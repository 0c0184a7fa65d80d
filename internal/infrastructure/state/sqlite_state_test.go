package state

import (
	"context"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"fieldwatch/internal/infrastructure/persistence/sqlite/model"
	"fieldwatch/internal/ports"
)

func setupState(t *testing.T) *SQLiteState {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "state.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.SyncState{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewSQLiteState(db)
}

func TestGetMissingKey(t *testing.T) {
	st := setupState(t)

	value, found, err := st.Get(context.Background(), ports.StateLastSyncAt)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found || value != "" {
		t.Fatalf("Get() = %q, %v, want miss", value, found)
	}
}

func TestSetOverwritesValue(t *testing.T) {
	st := setupState(t)
	ctx := context.Background()

	if err := st.Set(ctx, ports.StateLastSyncIssues, "3"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := st.Set(ctx, ports.StateLastSyncIssues, "7"); err != nil {
		t.Fatalf("Set() second error = %v", err)
	}

	value, found, err := st.Get(ctx, ports.StateLastSyncIssues)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || value != "7" {
		t.Fatalf("Get() = %q, %v, want latest value", value, found)
	}
}

func TestSetRejectsEmptyKey(t *testing.T) {
	st := setupState(t)

	if err := st.Set(context.Background(), "  ", "x"); err == nil {
		t.Fatal("Set() expected error for blank key")
	}
}
