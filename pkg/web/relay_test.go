package web

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/voxdocs/voxdocs/internal/pipeline"
	"github.com/voxdocs/voxdocs/pkg/llm"
	"github.com/voxdocs/voxdocs/pkg/stt"
)

// recordingWriter captures relay events for assertions.
type recordingWriter struct {
	mu     sync.Mutex
	events []relayEvent
}

func (w *recordingWriter) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, v.(relayEvent))
	return nil
}

func (w *recordingWriter) byType(eventType string) []relayEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []relayEvent
	for _, e := range w.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (w *recordingWriter) waitFor(t *testing.T, eventType string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(w.byType(eventType)) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d %q events", n, eventType)
}

func newTestRelay(provider llm.Provider, out jsonWriter) *relay {
	pipe := pipeline.New(identityCorrector{}, &staticGatherer{}, provider, pipeline.WithLogger(quietLogger()))
	return newRelay(pipe, out, quietLogger())
}

func TestRelayProcessesTurnFinalTranscript(t *testing.T) {
	out := &recordingWriter{}
	r := newTestRelay(llm.WithText("answer"), out)

	r.onTranscript(stt.Transcript{Text: "how do i use", EndOfTurn: false})
	r.onTranscript(stt.Transcript{Text: "how do I use drizzle", EndOfTurn: true})

	out.waitFor(t, "response", 1)

	if got := len(out.byType("transcript")); got != 2 {
		t.Errorf("expected 2 forwarded transcripts, got %d", got)
	}
	responses := out.byType("response")
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if responses[0].Response == nil || responses[0].Response.Response == "" {
		t.Error("empty relay response")
	}
}

func TestRelayPartialTranscriptsDoNotProcess(t *testing.T) {
	mock := llm.NewMock()
	out := &recordingWriter{}
	r := newTestRelay(mock, out)

	r.onTranscript(stt.Transcript{Text: "partial", EndOfTurn: false})
	r.onTranscript(stt.Transcript{Text: "", EndOfTurn: true})

	time.Sleep(50 * time.Millisecond)
	if mock.CallCount("Complete") != 0 {
		t.Error("partial or empty transcript reached the pipeline")
	}
	if got := len(out.byType("response")); got != 0 {
		t.Errorf("unexpected responses: %d", got)
	}
}

func TestRelayDropsUtteranceWhileProcessing(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	mock := &llm.Mock{
		CompleteFunc: func(ctx context.Context, req *llm.Request) (*llm.Response, error) {
			once.Do(func() { close(started) })
			<-release
			return &llm.Response{Text: "slow answer"}, nil
		},
	}

	out := &recordingWriter{}
	r := newTestRelay(mock, out)

	r.onTranscript(stt.Transcript{Text: "first utterance about drizzle", EndOfTurn: true})
	<-started

	// Second turn-final transcript arrives while the first is in flight.
	r.onTranscript(stt.Transcript{Text: "second utterance about prisma", EndOfTurn: true})

	close(release)
	out.waitFor(t, "response", 1)
	time.Sleep(50 * time.Millisecond)

	if got := len(out.byType("response")); got != 1 {
		t.Errorf("expected the second utterance to be dropped, got %d responses", got)
	}
	if mock.CallCount("Complete") != 1 {
		t.Errorf("expected 1 pipeline run, got %d", mock.CallCount("Complete"))
	}
}

func TestRelayConsumeEndsWithSessionError(t *testing.T) {
	out := &recordingWriter{}
	r := newTestRelay(llm.NewMock(), out)

	session := stt.NewMockSession()
	done := make(chan struct{})
	go func() {
		r.consume(session)
		close(done)
	}()

	session.Fail(context.DeadlineExceeded)
	<-done

	errs := out.byType("error")
	if len(errs) != 1 {
		t.Fatalf("expected 1 error event, got %d", len(errs))
	}
}
