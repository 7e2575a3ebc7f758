package speakable

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/voxdocs/voxdocs/pkg/llm"
)

const rewriteSystemPrompt = `You rewrite technical answers so they sound natural when read aloud by a voice assistant.

Rules:
- Keep the technical content accurate and complete.
- Remove markdown formatting, code blocks, and URLs. Mention that code or links are available on screen instead of reading them.
- Expand symbols and abbreviations into spoken words.
- Use short sentences.
- Respond with ONLY the rewritten text.`

const (
	rewriteTemperature = 0.3
	rewriteMaxTokens   = 300
	rewriteTimeout     = 5 * time.Second
)

// Rewriter produces speech-friendly text with an [llm.Provider],
// degrading to the deterministic [Clean] pass when the model call fails.
// The result is always run through Clean, so rewritten output carries
// the same no-markdown guarantee as the fallback path.
type Rewriter struct {
	llm     llm.Provider
	timeout time.Duration
	logger  *slog.Logger
}

// RewriterOption configures a Rewriter.
type RewriterOption func(*Rewriter)

// WithRewriteTimeout sets the per-rewrite deadline. Default: 5s.
func WithRewriteTimeout(d time.Duration) RewriterOption {
	return func(r *Rewriter) { r.timeout = d }
}

// WithRewriteLogger sets the structured logger.
func WithRewriteLogger(l *slog.Logger) RewriterOption {
	return func(r *Rewriter) { r.logger = l }
}

// NewRewriter returns a Rewriter backed by the given provider.
func NewRewriter(provider llm.Provider, opts ...RewriterOption) *Rewriter {
	r := &Rewriter{
		llm:     provider,
		timeout: rewriteTimeout,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	r.logger = r.logger.With("component", "speakable.rewriter")
	return r
}

// Rewrite returns a speakable form of text. Never empty for non-empty
// input, never returns an error.
func (r *Rewriter) Rewrite(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.llm.Complete(ctx, &llm.Request{
		System:      rewriteSystemPrompt,
		Prompt:      text,
		Temperature: rewriteTemperature,
		MaxTokens:   rewriteMaxTokens,
	})
	if err != nil {
		r.logger.Debug("rewrite failed, using regex cleaner", "error", err)
		return Clean(text)
	}

	rewritten := Clean(resp.Text)
	if rewritten == "" || rewritten == fallbackPhrase {
		return Clean(text)
	}
	return rewritten
}
