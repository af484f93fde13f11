// Package monitorlog writes the JSONL structured log records of spec
// §6.4: one object per line, appended to a file that may be shared
// across OS processes (a model checker replaying many schedules
// concurrently). Writes are guarded by an advisory file lock so
// interleaved appends from separate processes never tear a line.
package monitorlog

import (
	"log"
	"os"
	"sync"

	gojson "github.com/goccy/go-json"
	"github.com/gofrs/flock"
)

// EventRecord is one per-event log line (spec §6.4). Transition is nil
// for ignored events; Violation is set only when the event produced a
// violation, naming the reason.
type EventRecord struct {
	Event        string            `json:"event"`
	Fields       map[string]uint64 `json:"fields"`
	Transition   *string           `json:"transition"`
	Fired        bool              `json:"fired"`
	MarkingHash  uint64            `json:"marking_hash"`
	Violation    *string           `json:"violation,omitempty"`
	DiagnosticID *string           `json:"diagnostic_id,omitempty"`
}

// ExecEndRecord is the execution-end log line (spec §6.4), emitted by
// Monitor.OnExecutionEnd before the marking resets to initial_marking.
type ExecEndRecord struct {
	ExecEnd     bool   `json:"exec_end"`
	MarkingHash uint64 `json:"marking_hash"`
}

// Writer appends JSONL records to a single log file. A Writer is safe
// for concurrent use within one process; the flock additionally
// serializes appends against other processes sharing the same path.
type Writer struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

// Open prepares a Writer over path. The file itself is opened lazily
// on each append so the Writer holds no descriptor between writes.
func Open(path string) *Writer {
	return &Writer{path: path, lock: flock.New(path + ".lock")}
}

// WriteEvent appends rec as one JSON line. A failure to marshal or
// write is a LogIOFailure (spec §7): downgraded to a warning on
// standard error, never propagated, never aborts the interpreter.
func (w *Writer) WriteEvent(rec EventRecord) {
	w.write(rec)
}

// WriteExecEnd appends rec as one JSON line, same failure handling as
// WriteEvent.
func (w *Writer) WriteExecEnd(rec ExecEndRecord) {
	w.write(rec)
}

func (w *Writer) write(rec any) {
	data, err := gojson.Marshal(rec)
	if err != nil {
		log.Printf("cpn monitor: log marshal failed, record dropped: %v", err)
		return
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.lock.Lock(); err != nil {
		log.Printf("cpn monitor: log file lock failed, record dropped: %v", err)
		return
	}
	defer w.lock.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("cpn monitor: log file open failed, record dropped: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		log.Printf("cpn monitor: log file write failed, record dropped: %v", err)
	}
}
