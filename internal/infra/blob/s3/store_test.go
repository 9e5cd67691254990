package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"keibacore/internal/blob/core"
)

func TestStorePutGetAgainstMock(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()

	info, err := store.Put(ctx, "exports/run-a/a1.csv", strings.NewReader("race_id,horse_id\n"), core.PutOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "exports/run-a/a1.csv" || info.Size != int64(len("race_id,horse_id\n")) {
		t.Fatalf("put info: %+v", info)
	}

	got, rc, err := store.Get(ctx, "exports/run-a/a1.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "race_id,horse_id\n" {
		t.Fatalf("body: %q", body)
	}
	if got.ContentType != "text/csv" {
		t.Fatalf("content type: %q", got.ContentType)
	}
}

func TestStorePutIsCreateOnly(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if _, err := store.Put(ctx, "k", strings.NewReader("one"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("two"), core.PutOptions{}); err == nil {
		t.Fatalf("overwrite accepted")
	}
}

func TestStoreListByPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	for _, key := range []string{"exports/run-a/y.csv", "exports/run-b/x.json", "exports/run-a/x.json"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "exports/run-a/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "exports/run-a/x.json" || infos[1].Key != "exports/run-a/y.csv" {
		t.Fatalf("list result: %+v", infos)
	}
}

func TestStoreDeleteAndHead(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if _, err := store.Put(ctx, "k", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if deleted, err := store.Delete(ctx, "k"); err != nil || !deleted {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	if _, err := store.Head(ctx, "k"); err == nil {
		t.Fatalf("head found deleted object")
	}
}

func TestStorePresignURL(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	url, err := store.PresignURL(ctx, "exports/run-a/x.json", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(url, "mock-bucket") || !strings.Contains(url, "exports/run-a/x.json") {
		t.Fatalf("url: %s", url)
	}
	if _, err := store.PresignURL(ctx, "k", core.SignedURLOptions{Method: "DELETE"}); err == nil {
		t.Fatalf("DELETE presign accepted")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("missing bucket accepted")
	}
}

func TestOpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("KEIBACORE_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatalf("missing env bucket accepted")
	}
}

func TestStoreDriver(t *testing.T) {
	if NewMockForTests().Driver() != core.DriverS3 {
		t.Fatalf("unexpected driver")
	}
}
