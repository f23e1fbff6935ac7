package blob

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Put("results/a.pdf", []byte("pdf"))
	if err := store.Delete(ctx, "results/a.pdf"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if store.Exists("results/a.pdf") {
		t.Error("Expected object removed")
	}
	if got := store.Deleted(); len(got) != 1 || got[0] != "results/a.pdf" {
		t.Errorf("Expected deletion recorded, got %v", got)
	}
}

func TestMemoryStore_DeleteMissingKey(t *testing.T) {
	store := NewMemoryStore()

	if err := store.Delete(context.Background(), "no-such-key"); err != nil {
		t.Errorf("Deleting a missing key must succeed, got %v", err)
	}
}

func TestMemoryStore_InjectedFailure(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	injected := errors.New("access denied")
	store.Put("results/a.pdf", []byte("pdf"))
	store.FailDelete("results/a.pdf", injected)

	if err := store.Delete(ctx, "results/a.pdf"); !errors.Is(err, injected) {
		t.Fatalf("Expected injected error, got %v", err)
	}
	if !store.Exists("results/a.pdf") {
		t.Error("Failed delete must leave the object in place")
	}
}
