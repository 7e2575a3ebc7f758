// Package stt provides a streaming speech-to-text client.
//
// A Session is a duplex WebSocket connection to the transcription vendor:
// the caller streams raw PCM16 audio frames in, and transcript events
// stream out on a channel. Events carry an EndOfTurn flag; consumers that
// only care about complete utterances filter on it.
package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transcript is one transcription event from the vendor.
type Transcript struct {
	// Text is the transcribed speech so far in the current turn.
	Text string

	// EndOfTurn marks the transcript as turn-final: the speaker paused
	// and the text will not be revised further.
	EndOfTurn bool

	// Confidence is the vendor's end-of-turn confidence, 0 when absent.
	Confidence float64
}

// Session is a live transcription stream.
type Session interface {
	// SendAudio streams one frame of raw PCM16 audio to the vendor.
	SendAudio(pcm []byte) error

	// Transcripts returns the event channel. It is closed when the
	// session ends; check Err afterwards.
	Transcripts() <-chan Transcript

	// Err returns the error that ended the session, nil on clean close.
	Err() error

	// Close terminates the session and the underlying connection.
	Close() error
}

// Client dials transcription sessions.
type Client struct {
	config *Config
	logger *slog.Logger
}

// NewClient creates a streaming transcription client.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: cfg,
		logger: cfg.Logger.With("component", "stt.client"),
	}, nil
}

// Dial opens a transcription session. The context bounds the handshake
// only; the session itself lives until Close or a connection error.
func (c *Client) Dial(ctx context.Context) (Session, error) {
	url := fmt.Sprintf("%s?sample_rate=%d", c.config.Endpoint, c.config.SampleRate)

	header := http.Header{}
	header.Set("Authorization", c.config.APIKey)

	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}

	ws, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("stt: dial failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("stt: dial: %w", err)
	}

	s := &wsSession{
		ws:     ws,
		events: make(chan Transcript, 16),
		logger: c.logger,
	}
	go s.readLoop()
	return s, nil
}

// wsSession is a live vendor connection.
type wsSession struct {
	ws     *websocket.Conn
	wsMu   sync.Mutex
	events chan Transcript
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	err    error
}

var _ Session = (*wsSession)(nil)

func (s *wsSession) SendAudio(pcm []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()

	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	s.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := s.ws.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
		return fmt.Errorf("stt: send audio: %w", err)
	}
	return nil
}

func (s *wsSession) Transcripts() <-chan Transcript {
	return s.events
}

func (s *wsSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *wsSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// Best effort: ask the vendor to flush and terminate before the
	// socket drops.
	s.wsMu.Lock()
	s.ws.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_ = s.ws.WriteJSON(map[string]string{"type": "Terminate"})
	s.wsMu.Unlock()

	return s.ws.Close()
}

// vendorEvent is the wire shape of incoming vendor messages.
type vendorEvent struct {
	Type       string  `json:"type"`
	Transcript string  `json:"transcript"`
	EndOfTurn  bool    `json:"end_of_turn"`
	Confidence float64 `json:"end_of_turn_confidence"`
	Error      string  `json:"error"`
}

// readLoop pumps vendor messages into the event channel until the
// connection ends.
func (s *wsSession) readLoop() {
	defer close(s.events)

	for {
		s.ws.SetReadDeadline(time.Now().Add(120 * time.Second))
		_, message, err := s.ws.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if !s.closed {
				s.err = err
			}
			s.mu.Unlock()
			return
		}

		var event vendorEvent
		if err := json.Unmarshal(message, &event); err != nil {
			s.logger.Debug("unparseable vendor message", "error", err)
			continue
		}

		switch event.Type {
		case "Begin":
			s.logger.Debug("transcription session started")

		case "Turn":
			s.events <- Transcript{
				Text:       event.Transcript,
				EndOfTurn:  event.EndOfTurn,
				Confidence: event.Confidence,
			}

		case "Termination":
			s.logger.Debug("transcription session terminated by vendor")
			return

		case "Error":
			s.mu.Lock()
			s.err = fmt.Errorf("stt: vendor error: %s", event.Error)
			s.mu.Unlock()
			return
		}
	}
}
