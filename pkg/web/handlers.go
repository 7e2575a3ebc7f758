package web

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/voxdocs/voxdocs/internal/pipeline"
	"github.com/voxdocs/voxdocs/internal/speakable"
	"github.com/voxdocs/voxdocs/pkg/tts"
)

// VoiceQueryRequest is one utterance from the caller.
type VoiceQueryRequest struct {
	Query     string `json:"query"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds, optional
}

// VoiceQueryResponse is the pipeline envelope. Success is true whenever
// the pipeline ran, including degraded runs; Fallback marks degradation.
type VoiceQueryResponse struct {
	Success         bool                        `json:"success"`
	Response        string                      `json:"response"`
	QueryCorrection *pipeline.QueryCorrection   `json:"queryCorrection,omitempty"`
	Context         *pipeline.ProcessingContext `json:"context,omitempty"`
	ProcessingTime  int64                       `json:"processingTime"`
	Timestamp       int64                       `json:"timestamp"`
	Fallback        bool                        `json:"fallback,omitempty"`
}

// handleVoiceQuery runs the full pipeline. It always answers 200 with a
// well-formed envelope once past input validation: the voice loop on the
// other end breaks far harder on an error page than on a degraded answer.
func (s *Server) handleVoiceQuery(c *fiber.Ctx) error {
	var req VoiceQueryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return badRequest(c, "query is required")
	}

	result := s.pipe.Process(c.Context(), req.Query)

	now := time.Now().UnixMilli()
	elapsed := result.ProcessingTime.Milliseconds()
	if req.Timestamp > 0 && req.Timestamp <= now {
		elapsed = now - req.Timestamp
	}

	return c.JSON(VoiceQueryResponse{
		Success:         true,
		Response:        result.Response,
		QueryCorrection: &result.Correction,
		Context:         &result.Context,
		ProcessingTime:  elapsed,
		Timestamp:       now,
		Fallback:        result.Fallback,
	})
}

// DocContextRequest asks for documentation without answer generation.
type DocContextRequest struct {
	Query string `json:"query"`
}

// DocContextResponse is the raw retrieval result.
type DocContextResponse struct {
	Context       string   `json:"context"`
	Libraries     []string `json:"libraries"`
	Documentation string   `json:"documentation"`
	Examples      []string `json:"examples"`
}

func (s *Server) handleDocumentationContext(c *fiber.Ctx) error {
	var req DocContextRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return badRequest(c, "query is required")
	}

	bundle := s.docs.Gather(c.Context(), req.Query)

	libraries := bundle.Libraries
	if libraries == nil {
		libraries = []string{}
	}

	return c.JSON(DocContextResponse{
		Context:       bundle.Text,
		Libraries:     libraries,
		Documentation: bundle.Text,
		Examples:      extractExamples(bundle.Text),
	})
}

// AnalyzeRequest is a direct completion call with caller-supplied context.
type AnalyzeRequest struct {
	Query     string   `json:"query"`
	Context   string   `json:"context"`
	Libraries []string `json:"libraries"`
	Timestamp int64    `json:"timestamp"`
}

// AnalyzeResponse is the completion envelope.
type AnalyzeResponse struct {
	Success        bool   `json:"success"`
	Response       string `json:"response"`
	ProcessingTime int64  `json:"processingTime"`
	Model          string `json:"model"`
}

func (s *Server) handleCompletionAnalyze(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return badRequest(c, "query is required")
	}

	start := time.Now()
	answer, _ := s.pipe.Generate(c.Context(), pipeline.ProcessingContext{
		Query:          req.Query,
		CorrectedQuery: req.Query,
		Documentation:  req.Context,
		Libraries:      req.Libraries,
	})

	return c.JSON(AnalyzeResponse{
		Success:        true,
		Response:       answer,
		ProcessingTime: time.Since(start).Milliseconds(),
		Model:          s.model,
	})
}

// TTSRequest asks for speech synthesis. Voice and Speed are accepted for
// wire compatibility; the synthesis voice and rate are fixed server-side,
// with the alternate-voice retry handled inside the provider.
type TTSRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

// TTSErrorResponse tells the caller to use on-device speech synthesis.
type TTSErrorResponse struct {
	Error        string `json:"error"`
	UseWebSpeech bool   `json:"useWebSpeech"`
}

func (s *Server) handleTTS(c *fiber.Ctx) error {
	var req TTSRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return badRequest(c, "text is required")
	}
	if len(req.Text) > tts.MaxTextLen {
		return badRequest(c, fmt.Sprintf("text exceeds the %d character limit; truncate at a sentence boundary first", tts.MaxTextLen))
	}

	if s.tts == nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(TTSErrorResponse{
			Error:        "speech synthesis is not configured",
			UseWebSpeech: true,
		})
	}

	text := req.Text
	if s.cleaner != nil {
		text = s.cleaner.Rewrite(c.Context(), text)
	} else {
		text = speakable.Clean(text)
	}
	// Cleaning can expand symbols into words; re-clamp to the ceiling.
	text = speakable.Truncate(text, tts.MaxTextLen)

	result, err := s.tts.Synthesize(c.Context(), text)
	if err != nil {
		if errors.Is(err, tts.ErrTextTooLong) || errors.Is(err, tts.ErrEmptyText) {
			return badRequest(c, err.Error())
		}
		s.logger.Warn("synthesis failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(TTSErrorResponse{
			Error:        "speech synthesis failed",
			UseWebSpeech: true,
		})
	}

	c.Set("Content-Type", result.MIME)
	c.Set("X-Voice-Id", result.Voice)
	return c.Send(result.Audio)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"webSpeech": s.tts == nil,
		"relay":     s.stt != nil,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}

var codeFenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\n?(.*?)```")

// extractExamples pulls fenced code blocks out of documentation text.
func extractExamples(text string) []string {
	matches := codeFenceRe.FindAllStringSubmatch(text, -1)
	examples := make([]string, 0, len(matches))
	for _, m := range matches {
		if code := strings.TrimSpace(m[1]); code != "" {
			examples = append(examples, code)
		}
	}
	return examples
}
