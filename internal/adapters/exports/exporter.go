// Package exports renders stored pipeline runs into downloadable
// artifacts (CSV, JSON) and persists them through the blob store. Export
// requests are processed asynchronously by a single worker.
package exports

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"keibacore/internal/blob"
	"keibacore/pkg/domain"
)

// Format identifies an artifact encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Status describes the lifecycle stage of an export request.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Artifact captures one stored export artifact.
type Artifact struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	Rows        int       `json:"rows"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record tracks one export request and its resulting artifacts.
type Record struct {
	ID          string     `json:"id"`
	RunID       string     `json:"run_id"`
	Formats     []Format   `json:"formats"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
	RequestedBy string     `json:"requested_by"`
	Reason      string     `json:"reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Input represents an enqueue request for the worker.
type Input struct {
	RunID       string
	Formats     []Format
	RequestedBy string
	Reason      string
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for exports.
type AuditEntry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor"`
	RunID      string         `json:"run_id"`
	Status     Status         `json:"status"`
	Reason     string         `json:"reason,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Worker executes run exports asynchronously.
type Worker struct {
	runs  domain.RunStore
	store blob.Store
	audit AuditLogger

	queue chan task
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type task struct {
	id    string
	input Input
}

type rendered struct {
	artifact Artifact
	payload  []byte
}

// NewWorker constructs an export worker over the run store and blob store.
func NewWorker(runs domain.RunStore, store blob.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		runs:   runs,
		store:  store,
		audit:  audit,
		queue:  make(chan task, 32),
		jobs:   make(map[string]*Record),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

// Enqueue schedules an export job and returns the queued record.
func (w *Worker) Enqueue(ctx context.Context, input Input) (Record, error) {
	if w.runs == nil {
		return Record{}, fmt.Errorf("run store not configured")
	}
	if strings.TrimSpace(input.RunID) == "" {
		return Record{}, fmt.Errorf("run id required")
	}
	if _, ok, err := w.runs.GetRun(ctx, input.RunID); err != nil {
		return Record{}, err
	} else if !ok {
		return Record{}, fmt.Errorf("run %s not found", input.RunID)
	}

	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	uniq := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, format := range formats {
		if _, dup := seen[format]; dup {
			continue
		}
		if format != FormatCSV && format != FormatJSON {
			return Record{}, fmt.Errorf("unsupported export format %s", format)
		}
		uniq = append(uniq, format)
		seen[format] = struct{}{}
	}

	id := newID()
	now := time.Now().UTC()
	record := Record{
		ID:          id,
		RunID:       input.RunID,
		Formats:     uniq,
		Status:      StatusQueued,
		RequestedBy: input.RequestedBy,
		Reason:      input.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queued := record.copy()
	w.mu.Unlock()

	w.recordAudit(ctx, input.RequestedBy, input.RunID, StatusQueued, input.Reason, nil)

	select {
	case w.queue <- task{id: id, input: input}:
	default:
		return Record{}, fmt.Errorf("export queue full")
	}
	return queued, nil
}

// Get returns a snapshot of the export record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(t task) {
	w.updateStatus(t.id, StatusRunning, "")

	run, ok, err := w.runs.GetRun(w.ctx, t.input.RunID)
	if err != nil {
		w.fail(t.id, fmt.Sprintf("load run: %v", err))
		return
	}
	if !ok {
		w.fail(t.id, fmt.Sprintf("run %s missing", t.input.RunID))
		return
	}

	formats := w.formatsFor(t.id)
	artifacts := make([]Artifact, 0, len(formats))
	for _, format := range formats {
		r, err := renderRun(format, run)
		if err != nil {
			w.fail(t.id, err.Error())
			return
		}
		if w.store != nil {
			info, err := w.store.Put(w.ctx, r.artifact.Key, bytes.NewReader(r.payload), blob.PutOptions{
				ContentType: r.artifact.ContentType,
				Metadata:    map[string]string{"run_id": run.ID, "format": string(format)},
			})
			if err != nil {
				w.fail(t.id, fmt.Sprintf("store artifact: %v", err))
				return
			}
			if info.URL != "" {
				r.artifact.URL = info.URL
			}
		}
		artifacts = append(artifacts, r.artifact)
	}
	w.complete(t.id, artifacts)
}

func (w *Worker) formatsFor(id string) []Format {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if record, ok := w.jobs[id]; ok {
		return append([]Format(nil), record.Formats...)
	}
	return nil
}

func (w *Worker) updateStatus(id string, status Status, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	actor, runID := "", ""
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
		actor, runID = record.RequestedBy, record.RunID
	}
	w.mu.Unlock()
	var md map[string]any
	if message != "" {
		md = map[string]any{"note": message}
	}
	w.recordAudit(w.ctx, actor, runID, status, "", md)
}

func (w *Worker) complete(id string, artifacts []Artifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	actor, runID := "", ""
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
		actor, runID = record.RequestedBy, record.RunID
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, actor, runID, StatusSucceeded, "", nil)
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	actor, runID := "", ""
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
		actor, runID = record.RequestedBy, record.RunID
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, actor, runID, StatusFailed, "", map[string]any{"error": reason})
}

func (w *Worker) recordAudit(ctx context.Context, actor, runID string, status Status, reason string, md map[string]any) {
	if w.audit == nil {
		return
	}
	w.audit.Record(ctx, AuditEntry{
		ID:         newID(),
		Action:     "run_export",
		Actor:      actor,
		RunID:      runID,
		Status:     status,
		Reason:     reason,
		Metadata:   md,
		OccurredAt: time.Now().UTC(),
	})
}

func (r Record) copy() Record {
	dup := r
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]Artifact(nil), r.Artifacts...)
	}
	return dup
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}

// renderRun materializes one artifact for the format. Column order always
// follows the run's registry snapshot so re-exports are byte-identical.
func renderRun(format Format, run domain.StoredRun) (rendered, error) {
	id := newID()
	switch format {
	case FormatJSON:
		payload, err := json.Marshal(run)
		if err != nil {
			return rendered{}, fmt.Errorf("marshal json: %w", err)
		}
		return rendered{
			artifact: Artifact{
				ID:          id,
				Key:         artifactKey(run.ID, id, "json"),
				Format:      FormatJSON,
				ContentType: "application/json",
				SizeBytes:   int64(len(payload)),
				Rows:        len(run.Keys),
				CreatedAt:   time.Now().UTC(),
			},
			payload: payload,
		}, nil
	case FormatCSV:
		payload, err := renderCSV(run)
		if err != nil {
			return rendered{}, err
		}
		return rendered{
			artifact: Artifact{
				ID:          id,
				Key:         artifactKey(run.ID, id, "csv"),
				Format:      FormatCSV,
				ContentType: "text/csv",
				SizeBytes:   int64(len(payload)),
				Rows:        len(run.Keys),
				CreatedAt:   time.Now().UTC(),
			},
			payload: payload,
		}, nil
	default:
		return rendered{}, fmt.Errorf("unsupported export format %s", format)
	}
}

func renderCSV(run domain.StoredRun) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	header := make([]string, 0, len(run.Features)+2)
	header = append(header, "race_id", "horse_id")
	for _, f := range run.Features {
		header = append(header, f.Name)
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for i, key := range run.Keys {
		row := make([]string, 0, len(header))
		row = append(row, key.RaceID, key.HorseID)
		for _, f := range run.Features {
			col := run.Columns[f.Name]
			var v any
			if i < len(col) {
				v = col[i]
			}
			row = append(row, formatValue(v))
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func artifactKey(runID, artifactID, ext string) string {
	return fmt.Sprintf("exports/%s/%s.%s", runID, artifactID, ext)
}

// formatValue renders one cell. Nulls become empty strings; floats use the
// shortest round-trip representation so repeated exports compare equal.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprintf("%v", t)
	}
}
