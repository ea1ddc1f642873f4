// Package recorder persists finalized utterance rows.
package recorder

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"voiceload/internal/core"
)

// csvHeader matches the column order of WriteRow.
var csvHeader = []string{
	"session_idx", "server_sessionid", "utterance_id", "prompt",
	"t_start_ms", "t_text_first_ms", "t_audio_first_ms",
	"text_delay_ms", "audio_delay_ms", "completed", "notes",
}

// Recorder is an append-only sink for result rows. It keeps every row in
// memory for the post-run summary and optionally streams each row to a CSV
// writer. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	records []core.Record
	csv     *csv.Writer
	closer  io.Closer
	err     error
}

// New creates an in-memory recorder with no CSV sink.
func New() *Recorder {
	return &Recorder{}
}

// NewCSV creates a recorder that also appends each row to w.
// The header is written immediately.
func NewCSV(w io.Writer) *Recorder {
	r := &Recorder{csv: csv.NewWriter(w)}
	r.err = r.csv.Write(csvHeader)
	return r
}

// OpenCSVFile creates path (truncating any existing file) and returns a
// recorder streaming to it. Close releases the file.
func OpenCSVFile(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	r := NewCSV(f)
	r.closer = f
	return r, nil
}

// Record appends one finalized row. Write errors are sticky and surfaced by
// Close rather than per call; a benchmark run never aborts on a sink error.
func (r *Recorder) Record(rec core.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, rec)
	if r.csv == nil {
		return
	}
	if err := r.csv.Write(csvRow(rec)); err != nil && r.err == nil {
		r.err = err
	}
}

// Records returns a copy of all rows recorded so far.
func (r *Recorder) Records() []core.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]core.Record, len(r.records))
	copy(result, r.records)
	return result
}

// Counts returns the number of rows recorded so far and how many completed.
func (r *Recorder) Counts() (total, completed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Completed {
			completed++
		}
	}
	return len(r.records), completed
}

// Close flushes the CSV sink and reports the first error encountered during
// the run, if any.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.csv != nil {
		r.csv.Flush()
		if err := r.csv.Error(); err != nil && r.err == nil {
			r.err = err
		}
	}
	if r.closer != nil {
		if err := r.closer.Close(); err != nil && r.err == nil {
			r.err = err
		}
		r.closer = nil
	}
	return r.err
}

func csvRow(rec core.Record) []string {
	row := []string{
		strconv.Itoa(rec.SessionIndex),
		rec.SessionID,
		rec.UtteranceID,
		rec.Prompt,
		formatMillis(rec.Start),
		formatMillis(rec.TextFirst),
		formatMillis(rec.AudioFirst),
		"", "",
		strconv.FormatBool(rec.Completed),
		rec.Notes,
	}
	if d, ok := rec.TextDelay(); ok {
		row[7] = strconv.FormatInt(d.Milliseconds(), 10)
	}
	if d, ok := rec.AudioDelay(); ok {
		row[8] = strconv.FormatInt(d.Milliseconds(), 10)
	}
	return row
}

// formatMillis renders a timestamp as epoch milliseconds, empty when unset.
func formatMillis(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}
