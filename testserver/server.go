// Package testserver implements a mock conversational media service for
// exercising the harness end to end: an /offer handshake, a /human trigger,
// and per-session control (/ws) and media (/media) websocket channels.
package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Options configures the simulated service behavior.
type Options struct {
	TextDelay     time.Duration // delay before the first llm_text event
	AudioDelay    time.Duration // delay before the first audio frame
	AudioFrames   int           // frames emitted per request (default 3)
	FrameInterval time.Duration // spacing between frames (default 10ms)
	FailOffer     bool          // reject every handshake
	Mute          bool          // accept triggers but never respond
}

// Server is a mock conversational service.
type Server struct {
	opts     Options
	mux      *http.ServeMux
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*serviceSession
}

// serviceSession holds one session's channel connections. Writes to each
// websocket are serialized through the session mutex.
type serviceSession struct {
	id string

	mu      sync.Mutex
	control *websocket.Conn
	media   *websocket.Conn
}

// New creates a mock service with the given behavior.
func New(opts Options) *Server {
	if opts.AudioFrames <= 0 {
		opts.AudioFrames = 3
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 10 * time.Millisecond
	}
	s := &Server{
		opts:     opts,
		mux:      http.NewServeMux(),
		sessions: make(map[string]*serviceSession),
	}
	s.mux.HandleFunc("/offer", s.handleOffer)
	s.mux.HandleFunc("/human", s.handleHuman)
	s.mux.HandleFunc("/ws", s.handleControl)
	s.mux.HandleFunc("/media", s.handleMedia)
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// SessionCount reports how many sessions have been established.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// handleOffer establishes a session and returns its id.
func (s *Server) handleOffer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.opts.FailOffer {
		http.Error(w, "no capacity", http.StatusServiceUnavailable)
		return
	}

	sess := &serviceSession{id: uuid.NewString()[:8]}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"sessionid": sess.id})
}

func (s *Server) lookup(id string) *serviceSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// handleControl attaches the session's control channel and pushes the
// connected event, then holds the connection until the client goes away.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	sess := s.lookup(r.URL.Query().Get("sessionid"))
	if sess == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sess.mu.Lock()
	sess.control = conn
	sess.mu.Unlock()

	sess.writeControl(`{"type":"connected"}`)
	drain(conn)
}

// handleMedia attaches the session's media channel.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	sess := s.lookup(r.URL.Query().Get("sessionid"))
	if sess == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sess.mu.Lock()
	sess.media = conn
	sess.mu.Unlock()

	drain(conn)
}

// handleHuman acknowledges the trigger immediately and responds on the
// session's channels in the background.
func (s *Server) handleHuman(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SessionID string `json:"sessionid"`
		Type      string `json:"type"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	sess := s.lookup(req.SessionID)
	if sess == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)

	if s.opts.Mute {
		return
	}
	go s.respond(sess, req.Text, req.Type)
}

// respond emits one llm_text event after TextDelay and AudioFrames binary
// frames starting after AudioDelay.
func (s *Server) respond(sess *serviceSession, prompt, mode string) {
	go func() {
		time.Sleep(s.opts.TextDelay)
		reply := "reply: " + prompt
		if mode == "echo" {
			reply = prompt
		}
		msg, _ := json.Marshal(map[string]string{"type": "llm_text", "text": reply})
		sess.writeControl(string(msg))
	}()

	go func() {
		time.Sleep(s.opts.AudioDelay)
		frame := make([]byte, 320) // one 20ms chunk of silence at 8kHz/16-bit
		for i := 0; i < s.opts.AudioFrames; i++ {
			if !sess.writeMedia(frame) {
				return
			}
			time.Sleep(s.opts.FrameInterval)
		}
	}()
}

func (ss *serviceSession) writeControl(msg string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.control == nil {
		return false
	}
	return ss.control.WriteMessage(websocket.TextMessage, []byte(msg)) == nil
}

func (ss *serviceSession) writeMedia(frame []byte) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.media == nil {
		return false
	}
	return ss.media.WriteMessage(websocket.BinaryMessage, frame) == nil
}

// drain reads until the peer closes so the connection stays up.
func drain(conn *websocket.Conn) {
	defer conn.Close()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
