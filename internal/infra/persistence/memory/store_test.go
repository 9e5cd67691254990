package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"keibacore/pkg/domain"
)

func sampleRun(id string) domain.StoredRun {
	return domain.StoredRun{
		ID:            id,
		CreatedAt:     time.Date(2024, 5, 26, 15, 40, 0, 0, time.UTC),
		StrictMode:    true,
		PedigreeDepth: 3,
		Features: []domain.FeatureIndex{
			{Name: "horse_age", Index: 0},
			{Name: "weight_carried", Index: 1},
		},
		Keys: []domain.EntryKey{
			{RaceID: "202405021211", HorseID: "H001"},
			{RaceID: "202405021211", HorseID: "H002"},
		},
		Columns: map[string][]any{
			"horse_age":      {4.0, 4.0},
			"weight_carried": {58.0, 56.0},
		},
	}
}

func TestStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if err := store.SaveRun(ctx, sampleRun("run-a")); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := store.GetRun(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.ID != "run-a" || len(got.Features) != 2 || len(got.Keys) != 2 {
		t.Fatalf("stored run mangled: %+v", got)
	}

	if _, ok, _ := store.GetRun(ctx, "missing"); ok {
		t.Fatalf("missing run reported as present")
	}
}

func TestStoreRejectsDuplicateAndEmptyID(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	if err := store.SaveRun(ctx, sampleRun("run-a")); err != nil {
		t.Fatalf("save: %v", err)
	}
	err := store.SaveRun(ctx, sampleRun("run-a"))
	if !errors.Is(err, domain.ErrRunExists) {
		t.Fatalf("duplicate: got %v want ErrRunExists", err)
	}
	if err := store.SaveRun(ctx, domain.StoredRun{}); err == nil {
		t.Fatalf("empty id accepted")
	}
}

func TestStoreListOrdersByID(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for _, id := range []string{"run-c", "run-a", "run-b"} {
		if err := store.SaveRun(ctx, sampleRun(id)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	summaries, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("count: got %d", len(summaries))
	}
	for i, want := range []string{"run-a", "run-b", "run-c"} {
		if summaries[i].ID != want {
			t.Fatalf("order[%d]: got %s want %s", i, summaries[i].ID, want)
		}
	}
	if summaries[0].RowCount != 2 || summaries[0].FeatureCount != 2 {
		t.Fatalf("summary projection: %+v", summaries[0])
	}
}

func TestStoreExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := NewStore()
	for _, id := range []string{"run-b", "run-a"} {
		if err := src.SaveRun(ctx, sampleRun(id)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	snapshot := src.ExportState()
	if len(snapshot.Runs) != 2 || snapshot.Runs[0].ID != "run-a" {
		t.Fatalf("export order: %+v", snapshot.Runs)
	}

	dst := NewStore()
	dst.ImportState(snapshot)
	if _, ok, _ := dst.GetRun(ctx, "run-b"); !ok {
		t.Fatalf("imported run missing")
	}
	if err := dst.SaveRun(ctx, sampleRun("run-a")); !errors.Is(err, domain.ErrRunExists) {
		t.Fatalf("import did not preserve write-once: %v", err)
	}
}
