package sqlite_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/msomdec/strikkeguide/internal/domain"
)

func TestFileStore_SaveGetDelete(t *testing.T) {
	db := newTestDB(t)
	store := db.Files()
	ctx := context.Background()

	data := []byte("%PDF-1.4 original upload")
	if err := store.Save(ctx, "originals/abc", data); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, "originals/abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("expected %q, got %q", data, got)
	}

	if err := store.Delete(ctx, "originals/abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "originals/abc"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "originals/abc"); err != nil {
		t.Fatalf("Delete of missing key: %v", err)
	}
}

func TestFileStore_EmptyKey(t *testing.T) {
	db := newTestDB(t)
	err := db.Files().Save(context.Background(), "", []byte("x"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
