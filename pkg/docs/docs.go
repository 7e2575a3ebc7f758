// Package docs provides a client for the remote documentation retrieval
// service.
//
// The service is an MCP server reached over its streamable-HTTP
// transport. The client resolves a free-text query to library
// identifiers, ranks the candidates with a configurable score table, and
// fetches bounded documentation text for the top candidates in parallel.
//
// The client is deliberately lossy on failure: Gather never returns an
// error. "No documentation found" is a normal outcome for the pipeline,
// not a fault, so any stage failure (connect, tool call, zero
// candidates) degrades to an empty Bundle. Bundle.Degraded separates the
// failure cases from the legitimately-empty ones so callers can tell a
// dead retrieval service apart from a query no library matches.
package docs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

const (
	// topCandidates bounds the per-query fetch fan-out. Deliberately not
	// configurable per call.
	topCandidates = 2

	// tokenBudget is the server-side cap on each documentation fetch.
	tokenBudget = 4000

	toolResolve = "resolve-library-id"
	toolFetch   = "get-library-docs"
)

// Bundle is the retrieval result handed to response generation.
// Text is empty when nothing could be fetched.
type Bundle struct {
	// Text is the concatenated documentation, each library's section
	// prefixed with a "=== Documentation from <id> ===" marker.
	Text string

	// Libraries are the identifiers whose documentation appears in Text.
	Libraries []string

	// Degraded reports that retrieval failed outright: the service was
	// unreachable, resolution errored, or every candidate fetch failed.
	// It stays false when the service answered but no library matched.
	Degraded bool
}

// Config holds documentation client configuration.
type Config struct {
	// Endpoint is the documentation service URL.
	Endpoint string

	// ResolveTimeout bounds the resolve-library-id call.
	ResolveTimeout time.Duration

	// FetchTimeout bounds each get-library-docs call.
	FetchTimeout time.Duration

	// Table is the ranking score table.
	Table ScoreTable

	// HTTPClient carries the requests under the streamable transport.
	// Per-call deadlines come from contexts, so the client itself should
	// not set a short timeout.
	HTTPClient *http.Client

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithEndpoint sets the documentation service URL.
func WithEndpoint(url string) Option {
	return func(c *Config) { c.Endpoint = url }
}

// WithResolveTimeout sets the resolve call timeout.
func WithResolveTimeout(d time.Duration) Option {
	return func(c *Config) { c.ResolveTimeout = d }
}

// WithFetchTimeout sets the per-library fetch timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Config) { c.FetchTimeout = d }
}

// WithScoreTable replaces the ranking score table.
func WithScoreTable(table ScoreTable) Option {
	return func(c *Config) { c.Table = table }
}

// WithHTTPClient sets the HTTP client used by the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:       "https://mcp.context7.com/mcp",
		ResolveTimeout: 10 * time.Second,
		FetchTimeout:   15 * time.Second,
		Table:          DefaultScoreTable(),
		HTTPClient:     &http.Client{},
		Logger:         slog.Default(),
	}
}

// toolSession is the slice of an MCP client session the client needs.
type toolSession interface {
	CallTool(ctx context.Context, params *mcpsdk.CallToolParams) (*mcpsdk.CallToolResult, error)
	Close() error
}

var _ toolSession = (*mcpsdk.ClientSession)(nil)

// Client talks to the documentation retrieval service.
type Client struct {
	config *Config
	logger *slog.Logger
	mcp    *mcpsdk.Client

	mu      sync.Mutex
	session toolSession
}

// NewClient creates a documentation client. The session to the service
// is dialed lazily on first use.
func NewClient(opts ...Option) *Client {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Client{
		config: cfg,
		logger: cfg.Logger.With("component", "docs.client"),
		mcp: mcpsdk.NewClient(&mcpsdk.Implementation{
			Name:    "voxdocs",
			Version: "1.0.0",
		}, nil),
	}
}

// Close shuts down the session to the documentation service, if one was
// established.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

// Gather resolves a query to libraries and fetches their documentation.
// It never returns an error: every failure path degrades to an empty
// Bundle so the caller treats "no documentation" as a normal outcome,
// with Degraded marking the outright-failure cases.
func (c *Client) Gather(ctx context.Context, query string) Bundle {
	ids, err := c.Resolve(ctx, query)
	if err != nil {
		c.logger.Warn("library resolution failed", "query", query, "error", err)
		return Bundle{Degraded: true}
	}
	if len(ids) == 0 {
		c.logger.Debug("no library candidates", "query", query)
		return Bundle{}
	}

	ranked := Rank(ids, query, c.config.Table)
	if len(ranked) > topCandidates {
		ranked = ranked[:topCandidates]
	}

	type outcome struct {
		id   string
		text string
		err  error
	}
	outcomes := make([]outcome, len(ranked))

	// Fan out the per-library fetches and wait for every outcome.
	// Individual failures are isolated: goroutines record errors instead
	// of returning them, so one bad fetch cannot cancel its sibling.
	g, gctx := errgroup.WithContext(ctx)
	for i, cand := range ranked {
		g.Go(func() error {
			text, err := c.Fetch(gctx, cand.ID)
			outcomes[i] = outcome{id: cand.ID, text: text, err: err}
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	var b strings.Builder
	var libraries []string
	var failed int
	for _, o := range outcomes {
		if o.err != nil {
			c.logger.Warn("documentation fetch failed", "library", o.id, "error", o.err)
			failed++
			continue
		}
		if strings.TrimSpace(o.text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "=== Documentation from %s ===\n%s", o.id, o.text)
		libraries = append(libraries, o.id)
	}

	return Bundle{
		Text:      b.String(),
		Libraries: libraries,
		Degraded:  len(libraries) == 0 && failed > 0,
	}
}

// Resolve calls resolve-library-id and extracts candidate identifiers
// from the result text.
func (c *Client) Resolve(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.ResolveTimeout)
	defer cancel()

	text, err := c.callTool(ctx, toolResolve, map[string]any{
		"libraryName": query,
	})
	if err != nil {
		return nil, err
	}

	return ExtractLibraryIDs(text), nil
}

// Fetch calls get-library-docs for one library identifier and returns the
// documentation text, bounded by the server-side token budget.
func (c *Client) Fetch(ctx context.Context, libraryID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout)
	defer cancel()

	return c.callTool(ctx, toolFetch, map[string]any{
		"context7CompatibleLibraryID": libraryID,
		"tokens":                      tokenBudget,
	})
}

// connect returns the live session, dialing the service on first use.
func (c *Client) connect(ctx context.Context) (toolSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session, nil
	}

	transport := &mcpsdk.StreamableClientTransport{
		Endpoint:   c.config.Endpoint,
		HTTPClient: c.config.HTTPClient,
	}
	session, err := c.mcp.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("docs: connect to %s: %w", c.config.Endpoint, err)
	}
	c.session = session
	return session, nil
}

// callTool performs one tool call over the session and returns the
// concatenated text content of the result.
func (c *Client) callTool(ctx context.Context, tool string, args map[string]any) (string, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return "", err
	}

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      tool,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("docs: %s call: %w", tool, err)
	}

	var b strings.Builder
	for _, content := range result.Content {
		if tc, ok := content.(*mcpsdk.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}

	if result.IsError {
		return "", fmt.Errorf("docs: %s reported an error: %s", tool, strings.TrimSpace(b.String()))
	}
	return b.String(), nil
}
