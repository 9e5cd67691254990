package exports

import (
	"context"
	"log/slog"
	"sync"
)

// MemoryAuditLog captures audit entries in memory for assertions and
// small deployments.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a defensive copy of recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// SlogAuditLogger forwards audit entries to a structured logger.
type SlogAuditLogger struct {
	Logger *slog.Logger
}

// Record implements AuditLogger.
func (l SlogAuditLogger) Record(_ context.Context, entry AuditEntry) {
	if l.Logger == nil {
		return
	}
	l.Logger.Info("export audit",
		"action", entry.Action,
		"actor", entry.Actor,
		"run_id", entry.RunID,
		"status", entry.Status,
		"reason", entry.Reason)
}
