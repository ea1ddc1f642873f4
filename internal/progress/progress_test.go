package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"voiceload/internal/core"
	"voiceload/internal/recorder"
)

func TestProgress_QuietSuppressesOutput(t *testing.T) {
	rec := recorder.New()
	p := New(rec, true)

	var buf bytes.Buffer
	p.SetOutput(&buf)

	p.Start()
	p.Printf("should not appear")
	p.Stop()

	if buf.Len() != 0 {
		t.Errorf("expected no output in quiet mode, got %q", buf.String())
	}
}

func TestProgress_PrintfWritesLine(t *testing.T) {
	rec := recorder.New()
	p := New(rec, false)

	var buf bytes.Buffer
	p.SetOutput(&buf)

	p.Printf("starting %d sessions", 5)

	if !strings.Contains(buf.String(), "starting 5 sessions") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestProgress_PrintProgressReadsRecorder(t *testing.T) {
	rec := recorder.New()
	rec.Record(core.Record{Completed: true})
	rec.Record(core.Record{Completed: false})

	p := New(rec, false)
	var buf bytes.Buffer
	p.SetOutput(&buf)
	p.startTime = time.Now()

	p.printProgress()

	out := buf.String()
	if !strings.Contains(out, "Rows: 2") || !strings.Contains(out, "Completed: 1") {
		t.Errorf("unexpected progress line: %q", out)
	}
}

func TestProgress_StopIsIdempotent(t *testing.T) {
	rec := recorder.New()
	p := New(rec, false)
	var buf bytes.Buffer
	p.SetOutput(&buf)

	p.Start()
	p.Stop()
	p.Stop() // must not panic on double stop
}
