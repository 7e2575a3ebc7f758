package web

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/voxdocs/voxdocs/internal/pipeline"
	"github.com/voxdocs/voxdocs/pkg/stt"
)

// relayEvent is one JSON message on the voice relay socket.
type relayEvent struct {
	Type      string              `json:"type"` // session, transcript, response, error
	SessionID string              `json:"sessionId,omitempty"`
	Text      string              `json:"text,omitempty"`
	EndOfTurn bool                `json:"endOfTurn,omitempty"`
	Response  *VoiceQueryResponse `json:"response,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// jsonWriter is the client-facing surface the relay writes to.
type jsonWriter interface {
	WriteJSON(v interface{}) error
}

// syncWriter serializes writes from the transcript and response paths.
type syncWriter struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (w *syncWriter) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ws.WriteJSON(v)
}

// relay connects one browser session to the transcription vendor and the
// pipeline. At most one utterance is processed at a time: a turn-final
// transcript arriving mid-processing is dropped, not queued.
type relay struct {
	id     string
	pipe   *pipeline.Pipeline
	logger *slog.Logger
	out    jsonWriter
	busy   atomic.Bool
}

func newRelay(pipe *pipeline.Pipeline, out jsonWriter, logger *slog.Logger) *relay {
	id := uuid.NewString()
	return &relay{
		id:     id,
		pipe:   pipe,
		out:    out,
		logger: logger.With("session", id),
	}
}

// consume forwards transcript events to the client and feeds turn-final
// ones into the pipeline. Returns when the session's event channel closes.
func (r *relay) consume(session stt.Session) {
	for event := range session.Transcripts() {
		r.onTranscript(event)
	}
	if err := session.Err(); err != nil {
		r.logger.Warn("transcription session ended", "error", err)
		_ = r.out.WriteJSON(relayEvent{Type: "error", Error: "transcription ended unexpectedly"})
	}
}

func (r *relay) onTranscript(event stt.Transcript) {
	_ = r.out.WriteJSON(relayEvent{
		Type:      "transcript",
		Text:      event.Text,
		EndOfTurn: event.EndOfTurn,
	})

	if !event.EndOfTurn || event.Text == "" {
		return
	}

	if !r.busy.CompareAndSwap(false, true) {
		r.logger.Debug("utterance dropped, previous one still processing", "text", event.Text)
		return
	}

	go func() {
		defer r.busy.Store(false)

		result := r.pipe.Process(context.Background(), event.Text)
		_ = r.out.WriteJSON(relayEvent{
			Type: "response",
			Response: &VoiceQueryResponse{
				Success:         true,
				Response:        result.Response,
				QueryCorrection: &result.Correction,
				Context:         &result.Context,
				ProcessingTime:  result.ProcessingTime.Milliseconds(),
				Timestamp:       time.Now().UnixMilli(),
				Fallback:        result.Fallback,
			},
		})
	}()
}

// handleVoiceWS bridges one browser WebSocket to a vendor transcription
// session: binary frames in, transcript and response events out.
func (s *Server) handleVoiceWS(c *websocket.Conn) {
	if s.stt == nil {
		_ = c.WriteJSON(relayEvent{Type: "error", Error: "voice relay is not configured"})
		return
	}

	session, err := s.stt.Dial(context.Background())
	if err != nil {
		s.logger.Error("transcription dial failed", "error", err)
		_ = c.WriteJSON(relayEvent{Type: "error", Error: "could not reach the transcription service"})
		return
	}
	defer session.Close()

	out := &syncWriter{ws: c}
	r := newRelay(s.pipe, out, s.logger)
	_ = out.WriteJSON(relayEvent{Type: "session", SessionID: r.id})

	go r.consume(session)

	for {
		mt, frame, err := c.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		if err := session.SendAudio(frame); err != nil {
			r.logger.Warn("audio forward failed", "error", err)
			return
		}
	}
}
