package asset

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/VehiCheck/VehiCheck/internal/common/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "assets.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&TextImage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepo(gdb)
}

func TestTextImageLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	img := &TextImage{ID: uuid.New().String(), Title: "Logo taller", Text: "Taller Norte", Base64: "b64"}
	if err := repo.Create(ctx, img); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.FindByID(ctx, img.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Title != "Logo taller" {
		t.Fatalf("title = %q", got.Title)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v (%d)", err, len(list))
	}

	if err := repo.Delete(ctx, img.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, img.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, img.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("find after delete: %v", err)
	}
}
