package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"voiceload/internal/config"
	"voiceload/internal/recorder"
	"voiceload/internal/transport"
)

// markingSubmitter simulates the service answering on a channel: on each
// Submit it stamps the outstanding utterance after resolveAfter (0 = stamp
// immediately, negative = never). failAt makes the n-th call (1-based) fail.
type markingSubmitter struct {
	cursor       *cursor
	resolveAfter time.Duration
	markAudio    bool
	failAt       int
	calls        int
}

func (m *markingSubmitter) Submit(ctx context.Context, sess transport.SessionInfo, prompt string, mode transport.Mode) error {
	m.calls++
	if m.failAt > 0 && m.calls == m.failAt {
		return errors.New("connection refused")
	}
	if m.resolveAfter < 0 {
		return nil
	}
	u := m.cursor.current()
	go func() {
		if m.resolveAfter > 0 {
			time.Sleep(m.resolveAfter)
		}
		if m.markAudio {
			u.MarkAudioFirst(time.Now())
		} else {
			u.MarkTextFirst(time.Now())
		}
	}()
	return nil
}

func driverConfig(requests int) *config.Config {
	cfg := config.Default()
	cfg.RequestsPerSession = requests
	cfg.RequestTimeout = 200 * time.Millisecond
	cfg.RequestInterval = 0
	return cfg
}

func TestDriver_EmitsOneRowPerRequest(t *testing.T) {
	cur := &cursor{}
	rec := recorder.New()
	sub := &markingSubmitter{cursor: cur}

	d := &Driver{
		Index:     0,
		Session:   transport.SessionInfo{ID: "s1"},
		Config:    driverConfig(3),
		Submitter: sub,
		Recorder:  rec,
		cursor:    cur,
	}

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	records := rec.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(records))
	}
	for i, r := range records {
		if !r.Completed {
			t.Errorf("row %d: expected completed", i)
		}
		if _, ok := r.TextDelay(); !ok {
			t.Errorf("row %d: expected text delay", i)
		}
		if _, ok := r.AudioDelay(); ok {
			t.Errorf("row %d: audio delay should be absent", i)
		}
	}
	if cur.current() != nil {
		t.Error("cursor should be cleared after the run")
	}
}

func TestDriver_TimeoutProducesNonCompletedRow(t *testing.T) {
	cur := &cursor{}
	rec := recorder.New()
	sub := &markingSubmitter{cursor: cur, resolveAfter: -1} // never answer

	cfg := driverConfig(1)
	cfg.RequestTimeout = 50 * time.Millisecond

	d := &Driver{
		Session:   transport.SessionInfo{ID: "s1"},
		Config:    cfg,
		Submitter: sub,
		Recorder:  rec,
		cursor:    cur,
	}

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	records := rec.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 row, got %d", len(records))
	}
	r := records[0]
	if r.Completed {
		t.Error("expected completed=false")
	}
	if !strings.Contains(r.Notes, "timeout") {
		t.Errorf("expected timeout note, got %q", r.Notes)
	}
	if _, ok := r.TextDelay(); ok {
		t.Error("text delay should be absent")
	}
	if _, ok := r.AudioDelay(); ok {
		t.Error("audio delay should be absent")
	}
}

func TestDriver_SubmissionFailureDoesNotAbortSession(t *testing.T) {
	cur := &cursor{}
	rec := recorder.New()
	sub := &markingSubmitter{cursor: cur, failAt: 2}

	d := &Driver{
		Session:   transport.SessionInfo{ID: "s1"},
		Config:    driverConfig(3),
		Submitter: sub,
		Recorder:  rec,
		cursor:    cur,
	}

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	records := rec.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(records))
	}
	failed := records[1]
	if failed.Completed {
		t.Error("failed submission should not be completed")
	}
	if !strings.Contains(failed.Notes, "connection refused") {
		t.Errorf("expected submit error note, got %q", failed.Notes)
	}
	if records[0].Completed != true || records[2].Completed != true {
		t.Error("surrounding requests should still complete")
	}
}

func TestDriver_AudioResolution(t *testing.T) {
	cur := &cursor{}
	rec := recorder.New()
	sub := &markingSubmitter{cursor: cur, markAudio: true, resolveAfter: 20 * time.Millisecond}

	d := &Driver{
		Session:   transport.SessionInfo{ID: "s1"},
		Config:    driverConfig(1),
		Submitter: sub,
		Recorder:  rec,
		cursor:    cur,
	}

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	r := rec.Records()[0]
	if !r.Completed {
		t.Error("expected completed via audio channel")
	}
	d2, ok := r.AudioDelay()
	if !ok {
		t.Fatal("expected audio delay")
	}
	if d2 < 15*time.Millisecond || d2 > 150*time.Millisecond {
		t.Errorf("audio delay out of expected range: %v", d2)
	}
}

func TestDriver_ContextCancellationStopsLoop(t *testing.T) {
	cur := &cursor{}
	rec := recorder.New()
	sub := &markingSubmitter{cursor: cur, resolveAfter: -1}

	cfg := driverConfig(100)
	cfg.RequestTimeout = 10 * time.Second

	d := &Driver{
		Session:   transport.SessionInfo{ID: "s1"},
		Config:    cfg,
		Submitter: sub,
		Recorder:  rec,
		cursor:    cur,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	if err := d.Run(ctx); err == nil {
		t.Error("expected context error")
	}

	// The in-flight request still produced a row before the loop ended
	if len(rec.Records()) == 0 {
		t.Error("expected at least the in-flight row")
	}
}
