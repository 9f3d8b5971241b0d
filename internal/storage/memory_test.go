package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Set(ctx, map[string]any{KeyCurrentWorkspace: "ws_1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	record, err := store.Get(ctx, KeyCurrentWorkspace, KeyFavorites)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	var current string
	if err := json.Unmarshal(record[KeyCurrentWorkspace], &current); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if current != "ws_1" {
		t.Errorf("expected ws_1, got %s", current)
	}

	// Never-written key is absent, not empty.
	if _, ok := record[KeyFavorites]; ok {
		t.Error("unwritten key should be absent from the record")
	}
}

func TestMemorySetReplacesWholeValue(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Set(ctx, map[string]any{KeyFavorites: []string{"a", "b"}}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, map[string]any{KeyFavorites: []string{"c"}}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var favorites []string
	ok, err := GetJSON(ctx, store, KeyFavorites, &favorites)
	if err != nil || !ok {
		t.Fatalf("GetJSON failed: ok=%v err=%v", ok, err)
	}
	if len(favorites) != 1 || favorites[0] != "c" {
		t.Errorf("expected whole-value replacement, got %v", favorites)
	}
}

func TestMemorySubscribe(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	ch, cancel, err := store.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	if err := store.Set(ctx, map[string]any{KeyCurrentWorkspace: "ws_2"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected change notification")
	}
}

func TestMemorySubscribeCoalesces(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	ch, cancel, err := store.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	for i := 0; i < 5; i++ {
		if err := store.Set(ctx, map[string]any{KeyCurrentWorkspace: "ws"}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	// One pending signal at most; drain it and verify no livelock.
	<-ch
	select {
	case <-ch:
		t.Error("signals should coalesce to at most one pending notification")
	default:
	}
}

func TestMemoryClose(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	ch, cancel, err := store.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, ok := <-ch; ok {
		t.Error("subscription channel should be closed")
	}

	if err := store.Set(ctx, map[string]any{KeyCurrentWorkspace: "x"}); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
