package session

import (
	"context"
	"time"

	"voiceload/internal/config"
	"voiceload/internal/core"
	"voiceload/internal/ratelimit"
	"voiceload/internal/transport"
)

// Driver submits a session's utterances one at a time and finalizes a row for
// every one of them, resolved or not. It is the only writer of the cursor:
// a new utterance is never begun while the previous one is still outstanding.
type Driver struct {
	Index     int
	Session   transport.SessionInfo
	Config    *config.Config
	Submitter transport.Submitter
	Recorder  core.Recorder
	Limiter   *ratelimit.Limiter

	cursor *cursor
}

// Run executes the per-request state machine RequestsPerSession times.
// Submission failures and timeouts produce non-completed rows; only context
// cancellation ends the loop early.
func (d *Driver) Run(ctx context.Context) error {
	mode := transport.Mode(d.Config.Mode)

	for i := 0; i < d.Config.RequestsPerSession; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.Limiter.Wait(ctx); err != nil {
			return err
		}

		u := NewUtterance(d.Index, d.Session.ID, d.Config.Prompt(i))
		d.cursor.begin(u)

		completed := false
		if err := d.Submitter.Submit(ctx, d.Session, u.Prompt, mode); err != nil {
			// Terminal for this request only; the session moves on.
			u.AppendNote("submit: " + err.Error())
		} else {
			completed = d.await(ctx, u)
		}

		d.Recorder.Record(u.Snapshot(completed))
		d.cursor.clear()

		if i < d.Config.RequestsPerSession-1 {
			if err := sleep(ctx, d.Config.RequestInterval); err != nil {
				return err
			}
		}
	}
	return nil
}

// await blocks until the utterance resolves on either channel, the
// per-request deadline passes, or ctx is done.
func (d *Driver) await(ctx context.Context, u *Utterance) bool {
	timer := time.NewTimer(d.Config.RequestTimeout)
	defer timer.Stop()

	select {
	case <-u.Resolved():
		return true
	case <-timer.C:
		u.AppendNote("timeout")
		return false
	case <-ctx.Done():
		u.AppendNote("canceled")
		return false
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
