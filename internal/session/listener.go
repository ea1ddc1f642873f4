package session

import (
	"log"

	"voiceload/internal/transport"
)

// eventKindText is the control-channel event kind that marks the beginning of
// a reply. Everything else on the channel is ignored.
const eventKindText = "llm_text"

// runControlListener consumes the control channel for the lifetime of the
// session, stamping the first recognized text event onto whichever utterance
// is currently outstanding. It exits permanently on a stream error; channel
// loss is terminal for the session's text metric by design.
func runControlListener(stream transport.ControlStream, cur *cursor, sessionIndex int) {
	for {
		ev, err := stream.Next()
		if err != nil {
			log.Printf("[session %d] control channel closed: %v", sessionIndex, err)
			return
		}
		if ev.Kind != eventKindText || ev.Text == "" {
			continue
		}
		u := cur.current()
		if u == nil {
			continue
		}
		u.MarkTextFirst(ev.ReceivedAt)
	}
}

// runMediaListener consumes the media channel for the lifetime of the
// session. Every frame is drained off the stream to avoid back-pressure;
// only the first frame per outstanding utterance sets the timestamp.
func runMediaListener(stream transport.MediaStream, cur *cursor, sessionIndex int) {
	for {
		frame, err := stream.NextFrame()
		if err != nil {
			log.Printf("[session %d] media channel closed: %v", sessionIndex, err)
			return
		}
		u := cur.current()
		if u == nil {
			continue
		}
		u.MarkAudioFirst(frame.ReceivedAt)
	}
}
