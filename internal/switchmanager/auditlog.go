package switchmanager

import "time"

// Log levels recorded in the audit log
const (
	LevelInfo  = "INFO"
	LevelError = "ERROR"
)

const (
	// AuditLogCapacity is the number of entries kept before the oldest is evicted
	AuditLogCapacity = 100
	// timestampLayout matches what the panel shows next to each entry
	timestampLayout = "2006-01-02 15:04:05"
)

// LogEntry is one line of the operator-visible audit log
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// AuditLog is a fixed-capacity ring buffer of log entries in insertion order.
// It is not safe for concurrent use; the Manager guards it.
type AuditLog struct {
	entries []LogEntry
	start   int
	size    int
}

// NewAuditLog returns an empty log holding at most capacity entries
func NewAuditLog(capacity int) *AuditLog {
	if capacity < 1 {
		capacity = AuditLogCapacity
	}
	return &AuditLog{entries: make([]LogEntry, capacity)}
}

// Add appends an entry, evicting the oldest one when full
func (a *AuditLog) Add(at time.Time, level, message string) LogEntry {
	entry := LogEntry{Timestamp: at.Format(timestampLayout), Level: level, Message: message}
	capacity := len(a.entries)
	if a.size < capacity {
		a.entries[(a.start+a.size)%capacity] = entry
		a.size++
		return entry
	}
	a.entries[a.start] = entry
	a.start = (a.start + 1) % capacity
	return entry
}

// Len reports how many entries are held
func (a *AuditLog) Len() int {
	return a.size
}

// Last returns up to n of the most recent entries, oldest first. n <= 0 returns everything.
func (a *AuditLog) Last(n int) []LogEntry {
	if n <= 0 || n > a.size {
		n = a.size
	}
	out := make([]LogEntry, 0, n)
	for i := a.size - n; i < a.size; i++ {
		out = append(out, a.entries[(a.start+i)%len(a.entries)])
	}
	return out
}

// Clear drops every entry
func (a *AuditLog) Clear() {
	for i := range a.entries {
		a.entries[i] = LogEntry{}
	}
	a.start = 0
	a.size = 0
}
