// Package pipeline orchestrates the voice query flow: classify the
// utterance, correct transcription errors, gather documentation, and
// generate an answer.
//
// Stages run strictly in sequence; only the documentation fetches inside
// Gather run in parallel. Every stage degrades instead of failing, so
// Process always returns a speakable answer. A voice interface breaks
// much harder on silence than on a slightly-wrong sentence.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/voxdocs/voxdocs/internal/convo"
	"github.com/voxdocs/voxdocs/internal/speakable"
	"github.com/voxdocs/voxdocs/pkg/docs"
	"github.com/voxdocs/voxdocs/pkg/llm"
)

const (
	// docsCharBudget caps the documentation text embedded in the answer
	// prompt.
	docsCharBudget = 10000

	answerTemperature = 0.7
	answerMaxTokens   = 300
	answerTimeout     = 10 * time.Second
)

// QueryCorrection records what the correction stage did to the query.
type QueryCorrection struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
}

// ProcessingContext is the unit of work handed to answer generation.
// It fully determines the generated response.
type ProcessingContext struct {
	Query            string   `json:"query"`
	CorrectedQuery   string   `json:"correctedQuery"`
	Documentation    string   `json:"documentation"`
	Libraries        []string `json:"libraries"`
	IsConversational bool     `json:"isConversational"`
}

// Result is the terminal artifact of one processed query. Response is
// never empty; Fallback marks a degraded answer that is not grounded in
// an LLM completion.
type Result struct {
	Response       string
	Correction     QueryCorrection
	Context        ProcessingContext
	Fallback       bool
	ProcessingTime time.Duration
}

// Corrector rewrites a voice transcript. Implementations never fail;
// they return the input unchanged instead.
type Corrector interface {
	Correct(ctx context.Context, query string) string
}

// Gatherer retrieves documentation for a query.
type Gatherer interface {
	Gather(ctx context.Context, query string) docs.Bundle
}

// Pipeline wires the stages together. Construct once at startup; safe
// for concurrent use.
type Pipeline struct {
	corrector Corrector
	docs      Gatherer
	llm       llm.Provider
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a pipeline from its stage implementations.
func New(corrector Corrector, gatherer Gatherer, provider llm.Provider, opts ...Option) *Pipeline {
	p := &Pipeline{
		corrector: corrector,
		docs:      gatherer,
		llm:       provider,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	p.logger = p.logger.With("component", "pipeline")
	return p
}

// Process runs the full pipeline for one utterance. It never returns an
// error and never returns an empty Response.
func (p *Pipeline) Process(ctx context.Context, query string) Result {
	start := time.Now()
	query = strings.TrimSpace(query)

	if convo.IsConversational(query) {
		p.logger.Debug("conversational query", "query", query)
		return Result{
			Response:   convo.Reply(query),
			Correction: QueryCorrection{Original: query, Corrected: query},
			Context: ProcessingContext{
				Query:            query,
				CorrectedQuery:   query,
				IsConversational: true,
			},
			ProcessingTime: time.Since(start),
		}
	}

	corrected := p.corrector.Correct(ctx, query)
	bundle := p.docs.Gather(ctx, corrected)

	pctx := ProcessingContext{
		Query:          query,
		CorrectedQuery: corrected,
		Documentation:  bundle.Text,
		Libraries:      bundle.Libraries,
	}

	// A dead retrieval service is different from a query no library
	// matches: answering confidently without being able to look anything
	// up misleads the caller, so degrade to the apology instead.
	if bundle.Degraded {
		p.logger.Warn("documentation retrieval degraded", "query", corrected)
		return Result{
			Response:       degradedAnswer(query),
			Correction:     QueryCorrection{Original: query, Corrected: corrected},
			Context:        pctx,
			Fallback:       true,
			ProcessingTime: time.Since(start),
		}
	}

	answer, fallback := p.Generate(ctx, pctx)

	return Result{
		Response:       answer,
		Correction:     QueryCorrection{Original: query, Corrected: corrected},
		Context:        pctx,
		Fallback:       fallback,
		ProcessingTime: time.Since(start),
	}
}

// Generate produces the answer for a processing context. The boolean
// reports whether the answer came from the fallback path. Never errors,
// never returns empty text.
func (p *Pipeline) Generate(ctx context.Context, pctx ProcessingContext) (string, bool) {
	if pctx.IsConversational {
		return convo.Reply(pctx.Query), false
	}

	ctx, cancel := context.WithTimeout(ctx, answerTimeout)
	defer cancel()

	resp, err := p.llm.Complete(ctx, &llm.Request{
		System:      answerSystemPrompt,
		Prompt:      buildAnswerPrompt(pctx),
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
	})
	if err != nil {
		p.logger.Warn("answer generation failed", "query", pctx.Query, "error", err)
		return fallbackAnswer(pctx.Query), true
	}

	answer := strings.TrimSpace(resp.Text)
	if answer == "" {
		return fallbackAnswer(pctx.Query), true
	}
	return answer, false
}

const answerSystemPrompt = `You are a voice assistant that answers questions about software libraries and their documentation.

Rules:
- Answer in a few short sentences suitable for being read aloud.
- Ground your answer in the provided documentation when it is present.
- When the documentation does not cover the question, say so briefly and answer from general knowledge.
- No markdown formatting, no code blocks. Describe code verbally and mention it can be shown on screen.`

// buildAnswerPrompt assembles the single completion prompt: bounded
// documentation first, verbatim question last.
func buildAnswerPrompt(pctx ProcessingContext) string {
	var b strings.Builder

	docText := speakable.Truncate(pctx.Documentation, docsCharBudget)

	if docText != "" {
		b.WriteString("Documentation:\n")
		b.WriteString(docText)
		b.WriteString("\n\n")
	} else {
		b.WriteString("No documentation was found for this question.\n\n")
	}

	fmt.Fprintf(&b, "Question: %s", pctx.Query)
	return b.String()
}

// fallbackAnswer is the deterministic degraded response. It echoes the
// query and invites a rephrase so the voice loop keeps moving.
func fallbackAnswer(query string) string {
	return fmt.Sprintf(
		"I heard your question about %s, but I'm having trouble generating a full answer right now. Could you rephrase it or try again in a moment?",
		strings.TrimSpace(query),
	)
}

// degradedAnswer is spoken when the documentation service could not be
// reached at all, so any confident answer would be ungrounded.
func degradedAnswer(query string) string {
	return fmt.Sprintf(
		"I'm sorry, I couldn't reach the documentation service to look up %s. Please try again in a moment, or ask me something more general.",
		strings.TrimSpace(query),
	)
}
