package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

const (
	offerPath   = "/offer"
	humanPath   = "/human"
	controlPath = "/ws"
	mediaPath   = "/media"

	// maxHandshakeBodySize limits how much of the handshake response is read.
	maxHandshakeBodySize = 64 * 1024
)

// ServiceClient implements Client over HTTP plus two WebSockets per session.
type ServiceClient struct {
	BaseURL string
	HTTP    *http.Client
	Dialer  *websocket.Dialer
	Debug   *DebugLogger
}

// NewServiceClient creates a client for the service at baseURL.
// submitTimeout bounds the handshake and submission HTTP calls; the channel
// websockets are long-lived and not subject to it.
func NewServiceClient(baseURL string, submitTimeout time.Duration) *ServiceClient {
	return &ServiceClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: submitTimeout},
		Dialer:  websocket.DefaultDialer,
	}
}

// Establish performs the session handshake and derives the channel URLs.
func (c *ServiceClient) Establish(ctx context.Context) (SessionInfo, error) {
	body, err := json.Marshal(map[string]string{"client": "voiceload"})
	if err != nil {
		return SessionInfo{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+offerPath, bytes.NewReader(body))
	if err != nil {
		return SessionInfo{}, fmt.Errorf("handshake request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("handshake: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxHandshakeBodySize))
	if resp.StatusCode != http.StatusOK {
		return SessionInfo{}, fmt.Errorf("handshake: unexpected status %s", resp.Status)
	}

	id := gjson.GetBytes(respBody, "sessionid").String()
	if id == "" {
		return SessionInfo{}, fmt.Errorf("handshake: no sessionid in response")
	}

	wsBase, err := websocketBase(c.BaseURL)
	if err != nil {
		return SessionInfo{}, err
	}

	sess := SessionInfo{
		ID:         id,
		ControlURL: wsBase + controlPath + "?sessionid=" + url.QueryEscape(id),
		MediaURL:   wsBase + mediaPath + "?sessionid=" + url.QueryEscape(id),
	}
	c.Debug.LogHandshake(sess)
	return sess, nil
}

// OpenControl dials the control channel for an established session.
func (c *ServiceClient) OpenControl(ctx context.Context, sess SessionInfo) (ControlStream, error) {
	conn, resp, err := c.Dialer.DialContext(ctx, sess.ControlURL, nil)
	if err != nil {
		return nil, fmt.Errorf("control channel dial: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return &wsControlStream{conn: conn}, nil
}

// OpenMedia dials the media channel for an established session.
func (c *ServiceClient) OpenMedia(ctx context.Context, sess SessionInfo) (MediaStream, error) {
	conn, resp, err := c.Dialer.DialContext(ctx, sess.MediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("media channel dial: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return &wsMediaStream{conn: conn}, nil
}

// Submit triggers one interaction. The call acknowledges submission only;
// completion is observed on the channels.
func (c *ServiceClient) Submit(ctx context.Context, sess SessionInfo, prompt string, mode Mode) error {
	payload := struct {
		SessionID string `json:"sessionid"`
		Type      string `json:"type"`
		Text      string `json:"text"`
		Interrupt bool   `json:"interrupt"`
	}{
		SessionID: sess.ID,
		Type:      string(mode),
		Text:      prompt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+humanPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Debug.LogSubmitError(sess.ID, prompt, err)
		return fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body) // drain errors are ignorable

	if resp.StatusCode >= 400 {
		err := fmt.Errorf("submit: unexpected status %s", resp.Status)
		c.Debug.LogSubmitError(sess.ID, prompt, err)
		return err
	}
	c.Debug.LogSubmit(sess.ID, prompt, mode)
	return nil
}

// websocketBase maps an http(s) base URL to its ws(s) counterpart.
func websocketBase(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base URL scheme %q", u.Scheme)
	}
	return u.String(), nil
}
