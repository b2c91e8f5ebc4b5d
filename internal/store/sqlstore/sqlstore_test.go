package sqlstore

import (
	"context"
	"fmt"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s := New(gdb)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SetGetOverwriteDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, ok, err := s.Get(ctx, "chatHistory"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "chatHistory", `[{"id":"1-a"}]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "chatHistory", `[]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := s.Get(ctx, "chatHistory")
	if err != nil || !ok || v != "[]" {
		t.Fatalf("get = %q ok=%v err=%v", v, ok, err)
	}

	var n int64
	s.db.Model(&Entry{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected a single row after overwrite, got %d", n)
	}

	if err := s.Delete(ctx, "chatHistory"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "chatHistory"); ok {
		t.Fatalf("key should be gone")
	}
	if err := s.Delete(ctx, "chatHistory"); err != nil {
		t.Fatalf("deleting a missing key should not fail: %v", err)
	}
}
