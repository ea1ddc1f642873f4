// Package transport talks to the conversational service: session handshake,
// request submission, and the two per-session event streams.
package transport

import (
	"context"
	"time"
)

// Mode selects the service-side pipeline triggered by a submission.
type Mode string

const (
	ModeChat Mode = "chat" // LLM + TTS
	ModeEcho Mode = "echo" // TTS only
)

// SessionInfo is what the handshake negotiates: the server-assigned session
// id and the per-session channel endpoints.
type SessionInfo struct {
	ID         string
	ControlURL string
	MediaURL   string
}

// Event is one typed message from the control channel.
type Event struct {
	Kind       string
	Text       string
	ReceivedAt time.Time
}

// Frame is one opaque audio chunk from the media channel.
type Frame struct {
	Data       []byte
	ReceivedAt time.Time
}

// ControlStream is a push-based stream of typed text events scoped to one
// session. Next blocks until an event arrives or the stream fails; Close
// unblocks a pending Next.
type ControlStream interface {
	Next() (Event, error)
	Close() error
}

// MediaStream is the media-channel counterpart of ControlStream.
type MediaStream interface {
	NextFrame() (Frame, error)
	Close() error
}

// Client is everything a session worker needs from the target service.
// Establish is called once per session; a failure there is terminal for the
// session and is never retried.
type Client interface {
	Establish(ctx context.Context) (SessionInfo, error)
	OpenControl(ctx context.Context, sess SessionInfo) (ControlStream, error)
	OpenMedia(ctx context.Context, sess SessionInfo) (MediaStream, error)
	Submit(ctx context.Context, sess SessionInfo, prompt string, mode Mode) error
}

// Submitter is the narrow slice of Client the request driver depends on.
type Submitter interface {
	Submit(ctx context.Context, sess SessionInfo, prompt string, mode Mode) error
}
