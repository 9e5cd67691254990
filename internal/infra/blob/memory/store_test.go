package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"keibacore/internal/blob/core"
)

func TestStorePutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New()

	md := map[string]string{"run_id": "run-a"}
	info, err := store.Put(ctx, "exports/run-a/a1.json", strings.NewReader(`{"ok":true}`), core.PutOptions{
		ContentType: "application/json",
		Metadata:    md,
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(`{"ok":true}`)) {
		t.Fatalf("size: %d", info.Size)
	}

	md["run_id"] = "mutated" // caller copy must not leak in

	got, rc, err := store.Get(ctx, "exports/run-a/a1.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != `{"ok":true}` {
		t.Fatalf("body: %q", body)
	}
	if got.Metadata["run_id"] != "run-a" {
		t.Fatalf("metadata not isolated: %+v", got.Metadata)
	}
}

func TestStorePutIsCreateOnly(t *testing.T) {
	ctx := context.Background()
	store := New()
	if _, err := store.Put(ctx, "k", strings.NewReader("one"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("two"), core.PutOptions{}); err == nil {
		t.Fatalf("overwrite accepted")
	}
}

func TestStoreDeleteReportsExistence(t *testing.T) {
	ctx := context.Background()
	store := New()
	if _, err := store.Put(ctx, "k", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if existed, _ := store.Delete(ctx, "k"); !existed {
		t.Fatalf("delete missed existing blob")
	}
	if existed, _ := store.Delete(ctx, "k"); existed {
		t.Fatalf("delete reported missing blob as present")
	}
}

func TestStoreListOrdersByKey(t *testing.T) {
	ctx := context.Background()
	store := New()
	for _, key := range []string{"b/2", "a/1", "b/1"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "b/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "b/1" || infos[1].Key != "b/2" {
		t.Fatalf("list result: %+v", infos)
	}
}

func TestStorePresignUnsupported(t *testing.T) {
	if _, err := New().PresignURL(context.Background(), "k", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
