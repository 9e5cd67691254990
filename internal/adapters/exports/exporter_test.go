package exports

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"keibacore/internal/blob"
	"keibacore/internal/infra/persistence/memory"
	"keibacore/pkg/domain"
)

func storedRun(id string) domain.StoredRun {
	return domain.StoredRun{
		ID:            id,
		CreatedAt:     time.Date(2024, 5, 26, 16, 0, 0, 0, time.UTC),
		StrictMode:    true,
		PedigreeDepth: 3,
		Features: []domain.FeatureIndex{
			{Name: "horse_age", Index: 0},
			{Name: "is_male", Index: 1},
			{Name: "weight_carried", Index: 2},
		},
		Keys: []domain.EntryKey{
			{RaceID: "202405021211", HorseID: "H001"},
			{RaceID: "202405021211", HorseID: "H002"},
		},
		Columns: map[string][]any{
			"horse_age":      {4, 4},
			"is_male":        {true, false},
			"weight_carried": {58.0, 56.5},
		},
	}
}

func newTestWorker(t *testing.T) (*Worker, blob.Store, *MemoryAuditLog) {
	t.Helper()
	runs := memory.NewStore()
	if err := runs.SaveRun(context.Background(), storedRun("run-a")); err != nil {
		t.Fatalf("seed run: %v", err)
	}
	store := blob.NewMemory()
	audit := &MemoryAuditLog{}
	worker := NewWorker(runs, store, audit)
	worker.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = worker.Stop(ctx)
	})
	return worker, store, audit
}

func waitForTerminal(t *testing.T, worker *Worker, id string) Record {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		record, ok := worker.Get(id)
		if !ok {
			t.Fatalf("record %s vanished", id)
		}
		if record.Status == StatusSucceeded || record.Status == StatusFailed {
			return record
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("export %s did not finish", id)
	return Record{}
}

func TestWorkerExportsBothFormats(t *testing.T) {
	worker, store, audit := newTestWorker(t)

	record, err := worker.Enqueue(context.Background(), Input{
		RunID:       "run-a",
		RequestedBy: "analyst",
		Reason:      "weekly report",
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if record.Status != StatusQueued || len(record.Formats) != 2 {
		t.Fatalf("queued record: %+v", record)
	}

	done := waitForTerminal(t, worker, record.ID)
	if done.Status != StatusSucceeded {
		t.Fatalf("status: %s error: %s", done.Status, done.Error)
	}
	if len(done.Artifacts) != 2 || done.CompletedAt == nil {
		t.Fatalf("artifacts: %+v", done)
	}
	for _, artifact := range done.Artifacts {
		if !strings.HasPrefix(artifact.Key, "exports/run-a/") {
			t.Fatalf("artifact key: %s", artifact.Key)
		}
		if artifact.Rows != 2 {
			t.Fatalf("artifact rows: %d", artifact.Rows)
		}
		info, err := store.Head(context.Background(), artifact.Key)
		if err != nil {
			t.Fatalf("stored artifact missing: %v", err)
		}
		if info.Metadata["run_id"] != "run-a" {
			t.Fatalf("artifact metadata: %+v", info.Metadata)
		}
	}

	statuses := make([]Status, 0, 4)
	for _, entry := range audit.Entries() {
		if entry.Action != "run_export" {
			t.Fatalf("audit action: %s", entry.Action)
		}
		statuses = append(statuses, entry.Status)
	}
	if len(statuses) < 3 || statuses[0] != StatusQueued || statuses[len(statuses)-1] != StatusSucceeded {
		t.Fatalf("audit trail: %v", statuses)
	}
}

func TestWorkerCSVLayout(t *testing.T) {
	worker, store, _ := newTestWorker(t)

	record, err := worker.Enqueue(context.Background(), Input{RunID: "run-a", Formats: []Format{FormatCSV}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	done := waitForTerminal(t, worker, record.ID)
	if done.Status != StatusSucceeded || len(done.Artifacts) != 1 {
		t.Fatalf("record: %+v", done)
	}

	_, rc, err := store.Get(context.Background(), done.Artifacts[0].Key)
	if err != nil {
		t.Fatalf("get artifact: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv lines: %d\n%s", len(lines), body)
	}
	if lines[0] != "race_id,horse_id,horse_age,is_male,weight_carried" {
		t.Fatalf("header: %s", lines[0])
	}
	if lines[1] != "202405021211,H001,4,true,58" {
		t.Fatalf("first row: %s", lines[1])
	}
	if lines[2] != "202405021211,H002,4,false,56.5" {
		t.Fatalf("second row: %s", lines[2])
	}
}

func TestWorkerEnqueueValidation(t *testing.T) {
	worker, _, _ := newTestWorker(t)
	ctx := context.Background()

	if _, err := worker.Enqueue(ctx, Input{RunID: "missing"}); err == nil {
		t.Fatalf("unknown run accepted")
	}
	if _, err := worker.Enqueue(ctx, Input{RunID: "  "}); err == nil {
		t.Fatalf("blank run id accepted")
	}
	if _, err := worker.Enqueue(ctx, Input{RunID: "run-a", Formats: []Format{"parquet"}}); err == nil {
		t.Fatalf("unsupported format accepted")
	}

	record, err := worker.Enqueue(ctx, Input{RunID: "run-a", Formats: []Format{FormatCSV, FormatCSV, FormatJSON}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(record.Formats) != 2 {
		t.Fatalf("formats not deduplicated: %v", record.Formats)
	}
	waitForTerminal(t, worker, record.ID)
}

func TestWorkerFailsOnBlobConflict(t *testing.T) {
	worker, store, audit := newTestWorker(t)
	ctx := context.Background()

	record, err := worker.Enqueue(ctx, Input{RunID: "run-a", Formats: []Format{FormatJSON}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	done := waitForTerminal(t, worker, record.ID)
	if done.Status != StatusSucceeded {
		t.Fatalf("first export failed: %s", done.Error)
	}

	// Artifact IDs are random, so a second export of the same run lands at
	// a fresh key and must also succeed.
	second, err := worker.Enqueue(ctx, Input{RunID: "run-a", Formats: []Format{FormatJSON}})
	if err != nil {
		t.Fatalf("enqueue second: %v", err)
	}
	doneSecond := waitForTerminal(t, worker, second.ID)
	if doneSecond.Status != StatusSucceeded {
		t.Fatalf("second export failed: %s", doneSecond.Error)
	}
	if done.Artifacts[0].Key == doneSecond.Artifacts[0].Key {
		t.Fatalf("artifact keys collided: %s", done.Artifacts[0].Key)
	}

	infos, err := store.List(ctx, "exports/run-a/")
	if err != nil || len(infos) != 2 {
		t.Fatalf("stored artifacts: %v %v", infos, err)
	}
	for _, entry := range audit.Entries() {
		if entry.Status == StatusFailed {
			t.Fatalf("unexpected failure audit: %+v", entry)
		}
	}
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{true, "true"},
		{false, "false"},
		{58.0, "58"},
		{56.5, "56.5"},
		{7, "7"},
		{int64(30000), "30000"},
		{"05", "05"},
	}
	for _, tc := range cases {
		if got := formatValue(tc.in); got != tc.want {
			t.Fatalf("formatValue(%v): got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlogAuditLoggerNilSafe(t *testing.T) {
	SlogAuditLogger{}.Record(context.Background(), AuditEntry{Action: "run_export"})
}
