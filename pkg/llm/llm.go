// Package llm provides a unified interface for text completion providers.
//
// The package abstracts single-shot completions behind a Provider interface,
// enabling seamless switching between OpenAI and any OpenAI-compatible API
// (Ollama, vLLM, Together, Groq, etc.).
//
// Example usage:
//
//	client, _ := llm.NewClient(
//	    llm.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    llm.WithModel("gpt-4o-mini"),
//	)
//	defer client.Close()
//
//	resp, _ := client.Complete(ctx, &llm.Request{
//	    Prompt: "Explain Next.js server actions in two sentences.",
//	})
//	fmt.Println(resp.Text)
package llm

import "context"

// Provider is the completion interface.
// All implementations must satisfy this interface.
type Provider interface {
	// Complete generates a completion for a single prompt.
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Request describes a single completion call.
// Call sites tune temperature and output length per use: low temperature
// and short output for corrections, higher temperature and longer output
// for final answers.
type Request struct {
	// System is the optional system instruction block.
	System string

	// Prompt is the user prompt, sent verbatim.
	Prompt string

	// Model overrides the default model.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0-2.0).
	Temperature float64
}

// Response is a completed generation.
type Response struct {
	// Text is the generated completion, untrimmed.
	Text string

	// FinishReason indicates why generation stopped (stop, length).
	FinishReason string

	// Usage tracks token consumption.
	Usage Usage

	// Model used for generation.
	Model string

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}

// Usage tracks token consumption for billing and limits.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
