package db

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/kyotosound/soundrooms-backend/internal/logger"
	"github.com/kyotosound/soundrooms-backend/internal/types"
)

func TestSqliteDevPathMigrates(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))

	svc, err := NewDatabaseService(logger.NewNop())
	if err != nil {
		t.Fatalf("NewDatabaseService: %v", err)
	}
	if err := svc.AutoMigrateAll(); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}

	// The schema carries no database-side function defaults, so an insert
	// with an app-assigned id must work on sqlite exactly as on postgres.
	user := &types.User{
		ID:          uuid.New(),
		Email:       "alice@example.com",
		Password:    "hashed",
		DisplayName: "alice",
	}
	if err := svc.DB().Create(user).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}
	var got types.User
	if err := svc.DB().First(&got, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Fatalf("email=%q, want alice@example.com", got.Email)
	}
}

func TestUnknownDriverRejected(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	if _, err := NewDatabaseService(logger.NewNop()); err == nil {
		t.Fatal("expected error for unknown DB_DRIVER")
	}
}
