package transport

import (
	"fmt"
	"io"
	"sync"
)

// DebugLogger writes verbose handshake and submission traffic for
// troubleshooting. A nil *DebugLogger discards everything.
type DebugLogger struct {
	out io.Writer
	mu  sync.Mutex
}

func NewDebugLogger(out io.Writer) *DebugLogger {
	return &DebugLogger{out: out}
}

func (d *DebugLogger) LogHandshake(sess SessionInfo) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, ">>> HANDSHAKE sessionid=%s control=%s media=%s\n",
		sess.ID, sess.ControlURL, sess.MediaURL)
}

func (d *DebugLogger) LogSubmit(sessionID, prompt string, mode Mode) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, ">>> SUBMIT sessionid=%s mode=%s prompt=%q\n",
		sessionID, mode, truncate(prompt, 60))
}

func (d *DebugLogger) LogSubmitError(sessionID, prompt string, err error) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "!!! SUBMIT FAILED sessionid=%s prompt=%q: %v\n",
		sessionID, truncate(prompt, 60), err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
