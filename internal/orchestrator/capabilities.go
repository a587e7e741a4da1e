package orchestrator

import "context"

// LanguageModel is the narrow capability agents and meta-nodes use to reach
// an LLM. See llmadapter.go for the concrete adapter over graph/model.ChatModel.
type LanguageModel interface {
	Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error)
}

// SymbolLookup resolves free text to a tradable ticker symbol.
type SymbolLookup interface {
	Resolve(ctx context.Context, text string) (symbol string, found bool)
}

// Quote is MarketData's response shape.
type Quote struct {
	Price     float64
	ChangePct float64
	Volume    int64
	PER       float64
	PBR       float64
	ROE       float64
	MarketCap float64
	Sector    string
}

// MarketData fetches a real-time quote for a resolved symbol.
type MarketData interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// SemanticIndex performs top-k vector search with a minimum score floor.
type SemanticIndex interface {
	Search(ctx context.Context, text string, topK int, minScore float64) ([]Citation, error)
}

// Article is one hit from the news knowledge graph.
type Article struct {
	Title       string
	URL         string
	Snippet     string
	PublishedAt int64 // unix seconds
	Score       float64
}

// NewsGraph finds articles similar to an embedding vector.
type NewsGraph interface {
	Similar(ctx context.Context, embedding []float64, topK int, minScore float64) ([]Article, error)
}

// FeedItem is one entry fetched from the real-time news feed.
type FeedItem struct {
	Title       string
	URL         string
	PublishedAt int64 // unix seconds
	Language    string
	Body        string
}

// NewsFeed fetches recent items matching keywords.
type NewsFeed interface {
	Fetch(ctx context.Context, keywords []string, limit int) ([]FeedItem, error)
}

// Translator translates text into a target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Series is one named data series to chart.
type Series struct {
	Name   string
	Labels []string
	Values []float64
}

// ChartRenderer renders a series into a PNG image.
type ChartRenderer interface {
	Render(ctx context.Context, series []Series, kind string) ([]byte, error)
}

// Span is a single observability span handed to Tracer.Emit.
type Span struct {
	RunID    string
	Node     string
	StartUTC int64
	EndUTC   int64
	Outcome  string
	Attrs    map[string]interface{}
}

// Tracer emits spans. Implementations must never raise and must not block
// workflow execution.
type Tracer interface {
	Emit(span Span)
}

// Capabilities bundles every external collaborator the orchestrator
// consumes, injected once at construction time rather than reached through
// process-wide singletons.
type Capabilities struct {
	LanguageModel LanguageModel
	SymbolLookup  SymbolLookup
	MarketData    MarketData
	SemanticIndex SemanticIndex
	NewsGraph     NewsGraph
	NewsFeed      NewsFeed
	Translator    Translator
	ChartRenderer ChartRenderer
	Tracer        Tracer
}
