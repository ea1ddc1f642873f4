package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"voiceload/internal/config"
	"voiceload/internal/core"
	"voiceload/internal/ratelimit"
	"voiceload/internal/transport"
)

// Worker drives one simulated user: a single handshake, two background
// channel listeners scoped to the session, and the foreground request loop.
type Worker struct {
	Index    int
	Config   *config.Config
	Client   transport.Client
	Recorder core.Recorder
	Limiter  *ratelimit.Limiter
}

// Run owns the session lifecycle. On handshake failure it returns with zero
// rows recorded; the caller decides what that means for sibling sessions.
// The listeners never outlive the session: closing the streams unblocks them,
// and Run waits for both to exit before returning.
func (w *Worker) Run(ctx context.Context) error {
	sess, err := w.Client.Establish(ctx)
	if err != nil {
		return fmt.Errorf("session %d handshake: %w", w.Index, err)
	}
	log.Printf("[session %d] established, sessionid=%s", w.Index, sess.ID)

	control, err := w.Client.OpenControl(ctx, sess)
	if err != nil {
		return fmt.Errorf("session %d control channel: %w", w.Index, err)
	}
	media, err := w.Client.OpenMedia(ctx, sess)
	if err != nil {
		control.Close()
		return fmt.Errorf("session %d media channel: %w", w.Index, err)
	}

	cur := &cursor{}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		runControlListener(control, cur, w.Index)
	}()
	go func() {
		defer wg.Done()
		runMediaListener(media, cur, w.Index)
	}()

	driver := &Driver{
		Index:     w.Index,
		Session:   sess,
		Config:    w.Config,
		Submitter: w.Client,
		Recorder:  w.Recorder,
		Limiter:   w.Limiter,
		cursor:    cur,
	}
	runErr := driver.Run(ctx)

	control.Close()
	media.Close()
	wg.Wait()

	log.Printf("[session %d] closed", w.Index)
	return runErr
}
