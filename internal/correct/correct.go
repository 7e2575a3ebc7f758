// Package correct implements a language-model-based query correction
// stage that fixes speech-to-text misrecognitions of technical terms.
//
// Voice transcripts routinely mangle library names ("better also" for
// "better auth", "drizzle worm" for "drizzle orm") and spell numbers
// out. The [Corrector] sends the raw transcript to an [llm.Provider]
// with a conservative few-shot prompt and uses the rewrite as the query
// for documentation lookup.
//
// Correction is non-fatal and silent: on any failure (network, timeout,
// empty completion) Correct returns the input unchanged. One attempt per
// query, no retry.
package correct

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/voxdocs/voxdocs/pkg/llm"
)

const (
	defaultTemperature = 0.1
	defaultMaxTokens   = 100
	defaultTimeout     = 3 * time.Second
)

const systemPrompt = `You fix speech-to-text errors in technical questions about software libraries.

Rules:
- ONLY fix misrecognized technical terms and library names. Do NOT rephrase the question.
- Convert spelled-out numbers in technology names to digits.
- If the question is already correct, return it unchanged.
- Respond with ONLY the corrected question. No quotes, no explanation.

Examples:
"how do I set up better also" -> "how do I set up better auth"
"drizzle worm migrations" -> "drizzle orm migrations"
"next j s fourteen app router" -> "next.js 14 app router"
"tailwind c s s dark mode" -> "tailwindcss dark mode"
"react use effect cleanup" -> "react useEffect cleanup"`

// Option is a functional option for configuring a [Corrector].
type Option func(*Corrector)

// WithTemperature sets the sampling temperature. Default: 0.1.
func WithTemperature(temp float64) Option {
	return func(c *Corrector) { c.temperature = temp }
}

// WithTimeout sets the per-correction deadline. Default: 3s.
func WithTimeout(d time.Duration) Option {
	return func(c *Corrector) { c.timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Corrector) { c.logger = l }
}

// Corrector rewrites voice transcripts with an [llm.Provider]. Safe for
// concurrent use.
type Corrector struct {
	llm         llm.Provider
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
}

// New returns a Corrector backed by the given provider.
func New(provider llm.Provider, opts ...Option) *Corrector {
	c := &Corrector{
		llm:         provider,
		temperature: defaultTemperature,
		timeout:     defaultTimeout,
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.With("component", "correct")
	return c
}

// Correct returns the corrected form of query, or query itself when the
// correction call fails or produces nothing usable.
func (c *Corrector) Correct(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.llm.Complete(ctx, &llm.Request{
		System:      systemPrompt,
		Prompt:      query,
		Temperature: c.temperature,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		c.logger.Debug("correction failed, keeping original", "error", err)
		return query
	}

	corrected := stripQuotes(strings.TrimSpace(resp.Text))
	if corrected == "" {
		return query
	}
	if corrected != query {
		c.logger.Debug("corrected query", "original", query, "corrected", corrected)
	}
	return corrected
}

// stripQuotes removes one layer of surrounding quote characters the model
// sometimes adds despite instructions.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
