// Package audit records scan activity as JSON lines. Audit writes are
// fire-and-forget: a slow or broken sink never delays or fails a scan.
package audit

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one audited scan.
type Event struct {
	ID        string         `json:"id"`
	Time      time.Time      `json:"time"`
	Checks    []string       `json:"checks"`
	TextBytes int            `json:"text_bytes"`
	Findings  map[string]int `json:"findings"`
	Cached    bool           `json:"cached,omitempty"`
}

// Logger appends events to a JSONL file. A nil Logger is a valid no-op sink.
type Logger struct {
	mu   sync.Mutex
	file *os.File
	sem  *Semaphore
}

// NewLogger opens (or creates) the audit file in append mode.
// An empty path disables auditing and returns a nil Logger.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Logger{
		file: f,
		sem:  NewSemaphore(64),
	}, nil
}

// Record writes the event asynchronously. It never blocks the caller:
// when the writer pool is saturated the event is dropped and counted.
func (l *Logger) Record(ev Event) {
	if l == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	if !l.sem.TryAcquire() {
		return
	}
	go func() {
		defer l.sem.Release()
		l.write(ev)
	}()
}

func (l *Logger) write(ev Event) {
	line, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[AUDIT] marshal failed: %v", err)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		log.Printf("[AUDIT] write failed: %v", err)
	}
}

// Dropped reports how many events were discarded under backpressure.
func (l *Logger) Dropped() int64 {
	if l == nil {
		return 0
	}
	return l.sem.DroppedCount()
}

// Close flushes pending writers and closes the file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.sem.Drain()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
