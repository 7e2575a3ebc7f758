package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/voxdocs/voxdocs/internal/pipeline"
	"github.com/voxdocs/voxdocs/pkg/docs"
	"github.com/voxdocs/voxdocs/pkg/llm"
	"github.com/voxdocs/voxdocs/pkg/tts"
)

type identityCorrector struct{}

func (identityCorrector) Correct(ctx context.Context, query string) string { return query }

type staticGatherer struct{ bundle docs.Bundle }

func (s *staticGatherer) Gather(ctx context.Context, query string) docs.Bundle { return s.bundle }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer builds a server with mock stages. Pass options to layer
// on TTS or STT.
func newTestServer(provider llm.Provider, gatherer pipeline.Gatherer, opts ...Option) *Server {
	pipe := pipeline.New(identityCorrector{}, gatherer, provider, pipeline.WithLogger(quietLogger()))
	opts = append([]Option{WithLogger(quietLogger()), WithModel("gpt-4o-mini")}, opts...)
	return NewServer(pipe, gatherer, opts...)
}

func postJSON(t *testing.T, s *Server, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestVoiceQueryConversational(t *testing.T) {
	s := newTestServer(llm.NewMock(), &staticGatherer{})

	before := time.Now().UnixMilli()
	resp := postJSON(t, s, "/api/voice-query", VoiceQueryRequest{
		Query:     "hello",
		Timestamp: before,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	body := decodeBody[VoiceQueryResponse](t, resp)
	if !body.Success {
		t.Error("success false")
	}
	if body.Response == "" {
		t.Error("empty response")
	}
	if body.Fallback {
		t.Error("conversational reply flagged as fallback")
	}
	if body.Context == nil || !body.Context.IsConversational {
		t.Error("context not conversational")
	}
	if body.ProcessingTime < 0 || body.ProcessingTime > 10_000 {
		t.Errorf("implausible processing time %d", body.ProcessingTime)
	}
}

func TestVoiceQueryEmptyRejected(t *testing.T) {
	mock := llm.NewMock()
	s := newTestServer(mock, &staticGatherer{})

	resp := postJSON(t, s, "/api/voice-query", VoiceQueryRequest{Query: "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	if mock.CallCount("Complete") != 0 {
		t.Error("empty query reached the pipeline")
	}
}

func TestVoiceQueryDegradedStillSucceeds(t *testing.T) {
	s := newTestServer(llm.WithError(errors.New("llm down")), &staticGatherer{})

	resp := postJSON(t, s, "/api/voice-query", VoiceQueryRequest{Query: "how do I set up drizzle"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200 on degraded run", resp.StatusCode)
	}

	body := decodeBody[VoiceQueryResponse](t, resp)
	if !body.Success {
		t.Error("degraded run must still report success")
	}
	if !body.Fallback {
		t.Error("degraded run not flagged")
	}
	if body.Response == "" {
		t.Error("degraded run returned empty response")
	}
}

func TestDocumentationContext(t *testing.T) {
	gatherer := &staticGatherer{bundle: docs.Bundle{
		Text:      "=== Documentation from /vercel/next.js ===\nIntro.\n```js\nexport default function Page() {}\n```\n",
		Libraries: []string{"/vercel/next.js"},
	}}
	s := newTestServer(llm.NewMock(), gatherer)

	resp := postJSON(t, s, "/api/documentation-context", DocContextRequest{Query: "next.js pages"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	body := decodeBody[DocContextResponse](t, resp)
	if len(body.Libraries) != 1 || body.Libraries[0] != "/vercel/next.js" {
		t.Errorf("libraries = %v", body.Libraries)
	}
	if !strings.Contains(body.Documentation, "Intro.") {
		t.Errorf("documentation = %q", body.Documentation)
	}
	if len(body.Examples) != 1 || !strings.Contains(body.Examples[0], "export default") {
		t.Errorf("examples = %v", body.Examples)
	}
}

func TestDocumentationContextEmptyResult(t *testing.T) {
	s := newTestServer(llm.NewMock(), &staticGatherer{})

	resp := postJSON(t, s, "/api/documentation-context", DocContextRequest{Query: "unknown library"})
	body := decodeBody[DocContextResponse](t, resp)
	if body.Libraries == nil || body.Examples == nil {
		t.Error("empty result must use empty arrays, not null")
	}
}

func TestCompletionAnalyze(t *testing.T) {
	s := newTestServer(llm.WithText("Here is the analysis."), &staticGatherer{})

	resp := postJSON(t, s, "/api/completion-analyze", AnalyzeRequest{
		Query:   "what does this hook do",
		Context: "useEffect runs after render.",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	body := decodeBody[AnalyzeResponse](t, resp)
	if !body.Success || body.Response != "Here is the analysis." {
		t.Errorf("body = %+v", body)
	}
	if body.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", body.Model)
	}
}

func TestTTS(t *testing.T) {
	s := newTestServer(llm.NewMock(), &staticGatherer{}, WithTTS(tts.NewMock()))

	resp := postJSON(t, s, "/api/tts", TTSRequest{Text: "Hello there."})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("content type %q", ct)
	}
	audio, _ := io.ReadAll(resp.Body)
	if len(audio) == 0 {
		t.Error("empty audio body")
	}
}

func TestTTSCleansTextBeforeSynthesis(t *testing.T) {
	var synthesized string
	mock := &tts.Mock{
		SynthesizeFunc: func(ctx context.Context, text string) (*tts.AudioResult, error) {
			synthesized = text
			return &tts.AudioResult{Audio: []byte{0x01}, MIME: "audio/mpeg"}, nil
		},
	}
	s := newTestServer(llm.NewMock(), &staticGatherer{}, WithTTS(mock))

	resp := postJSON(t, s, "/api/tts", TTSRequest{Text: "Use **bold** and `inline code` here."})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if synthesized != "Use bold and inline code here." {
		t.Errorf("provider received %q", synthesized)
	}
}

// expandingCleaner inflates text past the synthesis ceiling, the way
// symbol verbalization can.
type expandingCleaner struct{ out string }

func (e expandingCleaner) Rewrite(ctx context.Context, text string) string { return e.out }

func TestTTSReclampKeepsValidUTF8(t *testing.T) {
	var synthesized string
	mock := &tts.Mock{
		SynthesizeFunc: func(ctx context.Context, text string) (*tts.AudioResult, error) {
			synthesized = text
			return &tts.AudioResult{Audio: []byte{0x01}, MIME: "audio/mpeg"}, nil
		},
	}
	// 200 three-byte runes: 600 bytes, and the 500-byte ceiling lands
	// mid-rune.
	cleaner := expandingCleaner{out: strings.Repeat("€", 200)}
	s := newTestServer(llm.NewMock(), &staticGatherer{}, WithTTS(mock), WithCleaner(cleaner))

	resp := postJSON(t, s, "/api/tts", TTSRequest{Text: "short input"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if len(synthesized) == 0 || len(synthesized) > tts.MaxTextLen {
		t.Fatalf("provider received %d bytes, want 1..%d", len(synthesized), tts.MaxTextLen)
	}
	if !utf8.ValidString(synthesized) {
		t.Error("re-clamped text is not valid UTF-8")
	}
}

func TestTTSOversizedRejected(t *testing.T) {
	mock := tts.NewMock()
	s := newTestServer(llm.NewMock(), &staticGatherer{}, WithTTS(mock))

	resp := postJSON(t, s, "/api/tts", TTSRequest{Text: strings.Repeat("a", 600)})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	body := decodeBody[map[string]string](t, resp)
	if !strings.Contains(body["error"], "500") {
		t.Errorf("error does not reference the limit: %q", body["error"])
	}
	if mock.CallCount("Synthesize") != 0 {
		t.Error("oversized text reached the provider")
	}

	// A 400-character input is within the ceiling.
	resp = postJSON(t, s, "/api/tts", TTSRequest{Text: strings.Repeat("a", 400)})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status %d for 400-char input, want 200", resp.StatusCode)
	}
}

func TestTTSWithoutProvider(t *testing.T) {
	s := newTestServer(llm.NewMock(), &staticGatherer{})

	resp := postJSON(t, s, "/api/tts", TTSRequest{Text: "Hello."})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", resp.StatusCode)
	}
	body := decodeBody[TTSErrorResponse](t, resp)
	if !body.UseWebSpeech {
		t.Error("useWebSpeech not signaled")
	}
}

func TestTTSProviderFailure(t *testing.T) {
	s := newTestServer(llm.NewMock(), &staticGatherer{}, WithTTS(tts.WithError(errors.New("vendor down"))))

	resp := postJSON(t, s, "/api/tts", TTSRequest{Text: "Hello."})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", resp.StatusCode)
	}
	body := decodeBody[TTSErrorResponse](t, resp)
	if !body.UseWebSpeech {
		t.Error("useWebSpeech not signaled on failure")
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(llm.NewMock(), &staticGatherer{})

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	body := decodeBody[map[string]interface{}](t, resp)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestExtractExamples(t *testing.T) {
	text := "Intro\n```ts\nconst a = 1;\n```\nmiddle\n```\nplain block\n```\n```js\n```\n"
	examples := extractExamples(text)
	if len(examples) != 2 {
		t.Fatalf("expected 2 examples, got %v", examples)
	}
	if examples[0] != "const a = 1;" || examples[1] != "plain block" {
		t.Errorf("examples = %v", examples)
	}
}
