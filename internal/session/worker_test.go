package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"voiceload/internal/config"
	"voiceload/internal/recorder"
	"voiceload/internal/transport"
)

// chanControlStream delivers events from a channel until closed.
type chanControlStream struct {
	events    chan transport.Event
	done      chan struct{}
	closeOnce sync.Once
}

func newChanControlStream() *chanControlStream {
	return &chanControlStream{
		events: make(chan transport.Event, 16),
		done:   make(chan struct{}),
	}
}

func (s *chanControlStream) Next() (transport.Event, error) {
	select {
	case ev := <-s.events:
		return ev, nil
	case <-s.done:
		return transport.Event{}, errors.New("stream closed")
	}
}

func (s *chanControlStream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

type chanMediaStream struct {
	frames    chan transport.Frame
	done      chan struct{}
	closeOnce sync.Once
}

func newChanMediaStream() *chanMediaStream {
	return &chanMediaStream{
		frames: make(chan transport.Frame, 16),
		done:   make(chan struct{}),
	}
}

func (s *chanMediaStream) NextFrame() (transport.Frame, error) {
	select {
	case f := <-s.frames:
		return f, nil
	case <-s.done:
		return transport.Frame{}, errors.New("stream closed")
	}
}

func (s *chanMediaStream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// fakeClient simulates a conversational service that answers each submission
// with one control event after textDelay and one frame after audioDelay.
type fakeClient struct {
	establishErr error
	textDelay    time.Duration
	audioDelay   time.Duration

	mu      sync.Mutex
	control *chanControlStream
	media   *chanMediaStream
}

func (c *fakeClient) Establish(ctx context.Context) (transport.SessionInfo, error) {
	if c.establishErr != nil {
		return transport.SessionInfo{}, c.establishErr
	}
	return transport.SessionInfo{ID: "fake-session"}, nil
}

func (c *fakeClient) OpenControl(ctx context.Context, sess transport.SessionInfo) (transport.ControlStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.control = newChanControlStream()
	return c.control, nil
}

func (c *fakeClient) OpenMedia(ctx context.Context, sess transport.SessionInfo) (transport.MediaStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.media = newChanMediaStream()
	return c.media, nil
}

func (c *fakeClient) Submit(ctx context.Context, sess transport.SessionInfo, prompt string, mode transport.Mode) error {
	c.mu.Lock()
	control, media := c.control, c.media
	c.mu.Unlock()

	go func() {
		time.Sleep(c.textDelay)
		control.events <- transport.Event{Kind: "llm_text", Text: "reply: " + prompt, ReceivedAt: time.Now()}
	}()
	go func() {
		time.Sleep(c.audioDelay)
		media.frames <- transport.Frame{Data: []byte{0x00}, ReceivedAt: time.Now()}
	}()
	return nil
}

func workerConfig(requests int) *config.Config {
	cfg := config.Default()
	cfg.RequestsPerSession = requests
	cfg.RequestTimeout = 500 * time.Millisecond
	cfg.RequestInterval = 0
	return cfg
}

func TestWorker_FullSession(t *testing.T) {
	client := &fakeClient{
		textDelay:  10 * time.Millisecond,
		audioDelay: 30 * time.Millisecond,
	}
	rec := recorder.New()

	w := &Worker{
		Index:    0,
		Config:   workerConfig(3),
		Client:   client,
		Recorder: rec,
	}

	if err := w.Run(context.Background()); err != nil {
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
		if r.SessionID != "fake-session" {
			t.Errorf("row %d: wrong session id %q", i, r.SessionID)
		}
	}
}

func TestWorker_HandshakeFailureRecordsNothing(t *testing.T) {
	client := &fakeClient{establishErr: errors.New("service unavailable")}
	rec := recorder.New()

	w := &Worker{
		Index:    2,
		Config:   workerConfig(5),
		Client:   client,
		Recorder: rec,
	}

	if err := w.Run(context.Background()); err == nil {
		t.Error("expected handshake error")
	}
	if len(rec.Records()) != 0 {
		t.Errorf("expected zero rows, got %d", len(rec.Records()))
	}
}

func TestWorker_ListenersDoNotOutliveSession(t *testing.T) {
	client := &fakeClient{textDelay: 5 * time.Millisecond}
	rec := recorder.New()

	w := &Worker{
		Index:    0,
		Config:   workerConfig(1),
		Client:   client,
		Recorder: rec,
	}

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Run returned, so both streams must already be closed.
	select {
	case <-client.control.done:
	default:
		t.Error("control stream still open after Run")
	}
	select {
	case <-client.media.done:
	default:
		t.Error("media stream still open after Run")
	}
}
