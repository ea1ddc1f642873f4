package transport

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

// wsControlStream reads JSON text events off a websocket connection.
type wsControlStream struct {
	conn *websocket.Conn
}

// Next blocks for the next well-formed text event. Binary messages and
// malformed JSON are skipped, not errors; the receive timestamp is taken
// before parsing so decode time never inflates measured latency.
func (s *wsControlStream) Next() (Event, error) {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			return Event{}, err
		}
		receivedAt := time.Now()

		if msgType != websocket.TextMessage {
			continue
		}
		if !gjson.ValidBytes(data) {
			continue
		}

		return Event{
			Kind:       gjson.GetBytes(data, "type").String(),
			Text:       gjson.GetBytes(data, "text").String(),
			ReceivedAt: receivedAt,
		}, nil
	}
}

func (s *wsControlStream) Close() error {
	return s.conn.Close()
}

// wsMediaStream reads binary audio frames off a websocket connection.
type wsMediaStream struct {
	conn *websocket.Conn
}

// NextFrame blocks for the next binary frame. Text messages on the media
// channel are drained and skipped.
func (s *wsMediaStream) NextFrame() (Frame, error) {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			return Frame{}, err
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		return Frame{Data: data, ReceivedAt: time.Now()}, nil
	}
}

func (s *wsMediaStream) Close() error {
	return s.conn.Close()
}
