package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNilLoggerIsNoOp(t *testing.T) {
	var l *Logger
	l.Record(Event{Checks: []string{"unicode_bidi"}})
	if l.Dropped() != 0 {
		t.Fatal("nil logger should report zero drops")
	}
	if err := l.Close(); err != nil {
		t.Fatalf("nil logger close: %v", err)
	}
}

func TestEmptyPathDisablesAuditing(t *testing.T) {
	l, err := NewLogger("")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if l != nil {
		t.Fatal("empty path should yield a nil logger")
	}
}

func TestRecordWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	l.Record(Event{
		Checks:    []string{"unicode_specials", "payload_base64"},
		TextBytes: 128,
		Findings:  map[string]int{"payload_base64": 2},
	})
	l.Record(Event{Checks: []string{"unicode_norm"}, TextBytes: 9})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open audit file: %v", err)
	}
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("bad audit line %q: %v", sc.Text(), err)
		}
		events = append(events, ev)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 audit lines, got %d", len(events))
	}
	for _, ev := range events {
		if ev.ID == "" {
			t.Fatal("event should be assigned an id")
		}
		if ev.Time.IsZero() {
			t.Fatal("event should be assigned a timestamp")
		}
	}
	if events[0].Findings["payload_base64"] != 2 && events[1].Findings["payload_base64"] != 2 {
		t.Fatal("finding counts should survive the round trip")
	}
}

func TestSemaphoreDropsAtCapacity(t *testing.T) {
	s := NewSemaphore(2)
	if !s.TryAcquire() || !s.TryAcquire() {
		t.Fatal("first two acquires should succeed")
	}
	if s.TryAcquire() {
		t.Fatal("third acquire should fail at capacity")
	}
	if s.DroppedCount() != 1 {
		t.Fatalf("expected 1 drop, got %d", s.DroppedCount())
	}
	s.Release()
	if !s.TryAcquire() {
		t.Fatal("acquire after release should succeed")
	}
}

func TestSemaphoreAcquireHonorsContext(t *testing.T) {
	s := NewSemaphore(1)
	if err := s.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.Acquire(ctx); err == nil {
		t.Fatal("expected context deadline while at capacity")
	}
}

func TestSemaphoreDrainWaitsForRelease(t *testing.T) {
	s := NewSemaphore(4)
	if !s.TryAcquire() {
		t.Fatal("acquire failed")
	}
	done := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Release()
		close(done)
	}()
	s.Drain()
	select {
	case <-done:
	default:
		t.Fatal("drain returned before the slot was released")
	}
	if s.InUse() != 0 {
		t.Fatalf("expected no slots in use after drain, got %d", s.InUse())
	}
}
