// Package audit records the outcome of every door event: authorization
// attempts (granted or denied with a reason) and manual overrides. The
// log is held in memory for the status API and appended as JSON lines to
// a file for operators.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Decision classifies an audit entry.
type Decision string

const (
	DecisionGranted  Decision = "granted"
	DecisionDenied   Decision = "denied"
	DecisionOverride Decision = "override"
)

// Entry is one recorded door event.
type Entry struct {
	Time     string   `json:"time"`
	UID      string   `json:"uid,omitempty"`
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason,omitempty"`
	Grantee  string   `json:"grantee,omitempty"`
	Source   string   `json:"source,omitempty"`
}

// DefaultMaxEntries bounds the in-memory ring.
const DefaultMaxEntries = 1000

// Log is a thread-safe event log. With an empty path it is memory-only.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
	file    *os.File

	granted   int
	denied    int
	overrides int
}

// NewLog opens (or creates) the JSONL file at path for appending. An
// empty path keeps the log in memory only.
func NewLog(path string, max int) (*Log, error) {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	l := &Log{max: max}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		l.file = f
	}
	return l, nil
}

// Record appends an entry, stamping the time if unset.
func (l *Log) Record(e Entry) {
	if e.Time == "" {
		e.Time = time.Now().UTC().Format(time.RFC3339)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
	switch e.Decision {
	case DecisionGranted:
		l.granted++
	case DecisionDenied:
		l.denied++
	case DecisionOverride:
		l.overrides++
	}

	if l.file != nil {
		line, err := json.Marshal(e)
		if err == nil {
			line = append(line, '\n')
			_, err = l.file.Write(line)
		}
		if err != nil {
			slog.Warn("audit log write failed", "err", err)
		}
	}
}

// Recent returns up to n entries, newest first.
func (l *Log) Recent(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		out[i] = l.entries[len(l.entries)-1-i]
	}
	return out
}

// Counters reports totals since startup.
func (l *Log) Counters() (granted, denied, overrides int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.granted, l.denied, l.overrides
}

// Close flushes and closes the backing file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
