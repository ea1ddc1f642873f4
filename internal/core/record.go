// Package core defines the fundamental types shared across the harness.
package core

import "time"

// Record is the flattened, append-only projection of one finalized utterance.
// A zero TextFirst or AudioFirst means that channel never answered for this
// utterance; the corresponding delay accessor reports ok=false.
type Record struct {
	SessionIndex int
	SessionID    string
	UtteranceID  string
	Prompt       string
	Start        time.Time
	TextFirst    time.Time
	AudioFirst   time.Time
	Completed    bool
	Notes        string
}

// TextDelay returns the submission-to-first-control-event latency.
func (r Record) TextDelay() (time.Duration, bool) {
	if r.TextFirst.IsZero() {
		return 0, false
	}
	return r.TextFirst.Sub(r.Start), true
}

// AudioDelay returns the submission-to-first-media-frame latency.
func (r Record) AudioDelay() (time.Duration, bool) {
	if r.AudioFirst.IsZero() {
		return 0, false
	}
	return r.AudioFirst.Sub(r.Start), true
}
