// Package session implements one simulated user: a session worker composed of
// a handshake, two background channel listeners, and a foreground request
// driver sharing a single-slot current-utterance cursor.
package session

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"voiceload/internal/core"
)

// Utterance tracks one interaction request end to end. The driver creates it,
// the listeners stamp its first-arrival timestamps, and the driver finalizes
// it into a core.Record.
//
// Both Mark methods are set-once: the first call per field wins and every
// later call is a no-op, so duplicate or late channel events cannot move a
// timestamp. The first successful mark of either field closes the resolved
// channel, which is what the driver waits on.
type Utterance struct {
	SessionIndex int
	SessionID    string
	ID           string
	Prompt       string
	Start        time.Time

	mu         sync.Mutex
	textFirst  time.Time
	audioFirst time.Time
	notes      []string
	resolved   chan struct{}
	signaled   bool
}

// NewUtterance creates an utterance with a fresh id, stamped with the current
// time as its submission start.
func NewUtterance(sessionIndex int, sessionID, prompt string) *Utterance {
	return &Utterance{
		SessionIndex: sessionIndex,
		SessionID:    sessionID,
		ID:           uuid.NewString(),
		Prompt:       prompt,
		Start:        time.Now(),
		resolved:     make(chan struct{}),
	}
}

// MarkTextFirst records the first control-event arrival.
// Reports whether this call was the one that set the timestamp.
func (u *Utterance) MarkTextFirst(t time.Time) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.textFirst.IsZero() {
		return false
	}
	u.textFirst = t
	u.signalLocked()
	return true
}

// MarkAudioFirst records the first media-frame arrival.
// Reports whether this call was the one that set the timestamp.
func (u *Utterance) MarkAudioFirst(t time.Time) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.audioFirst.IsZero() {
		return false
	}
	u.audioFirst = t
	u.signalLocked()
	return true
}

func (u *Utterance) signalLocked() {
	if !u.signaled {
		u.signaled = true
		close(u.resolved)
	}
}

// Resolved is closed once either first-arrival timestamp lands.
func (u *Utterance) Resolved() <-chan struct{} {
	return u.resolved
}

// AppendNote adds a diagnostic note to the utterance.
func (u *Utterance) AppendNote(note string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.notes = append(u.notes, note)
}

// Snapshot finalizes the utterance into an immutable result row.
func (u *Utterance) Snapshot(completed bool) core.Record {
	u.mu.Lock()
	defer u.mu.Unlock()
	return core.Record{
		SessionIndex: u.SessionIndex,
		SessionID:    u.SessionID,
		UtteranceID:  u.ID,
		Prompt:       u.Prompt,
		Start:        u.Start,
		TextFirst:    u.textFirst,
		AudioFirst:   u.audioFirst,
		Completed:    completed,
		Notes:        strings.Join(u.notes, "; "),
	}
}

// cursor is the per-session single-slot handoff between the driver (its sole
// writer) and the two channel listeners (its readers). It holds the utterance
// currently awaiting a first arrival, or nil between requests.
type cursor struct {
	p atomic.Pointer[Utterance]
}

func (c *cursor) begin(u *Utterance) { c.p.Store(u) }
func (c *cursor) clear()             { c.p.Store(nil) }
func (c *cursor) current() *Utterance { return c.p.Load() }
