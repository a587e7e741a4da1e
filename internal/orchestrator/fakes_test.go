package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"
)

// fakeSymbolLookup resolves a fixed table of query substrings to symbols.
type fakeSymbolLookup struct {
	table map[string]string
}

func (f *fakeSymbolLookup) Resolve(_ context.Context, text string) (string, bool) {
	lower := strings.ToLower(text)
	for substr, symbol := range f.table {
		if strings.Contains(lower, strings.ToLower(substr)) {
			return symbol, true
		}
	}
	return "", false
}

// fakeMarketData returns a canned quote or a scripted error.
type fakeMarketData struct {
	quote Quote
	err   error
	calls int
}

func (f *fakeMarketData) Quote(_ context.Context, _ string) (Quote, error) {
	f.calls++
	if f.err != nil {
		return Quote{}, f.err
	}
	return f.quote, nil
}

// fakeSemanticIndex returns a fixed hit list.
type fakeSemanticIndex struct {
	hits []Citation
	err  error
}

func (f *fakeSemanticIndex) Search(_ context.Context, _ string, topK int, _ float64) ([]Citation, error) {
	if f.err != nil {
		return nil, f.err
	}
	if topK > 0 && topK < len(f.hits) {
		return f.hits[:topK], nil
	}
	return f.hits, nil
}

// fakeNewsGraph returns a fixed article list.
type fakeNewsGraph struct {
	articles []Article
	err      error
}

func (f *fakeNewsGraph) Similar(_ context.Context, _ []float64, _ int, _ float64) ([]Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.articles, nil
}

// fakeNewsFeed returns a fixed feed item list.
type fakeNewsFeed struct {
	items []FeedItem
	err   error
}

func (f *fakeNewsFeed) Fetch(_ context.Context, _ []string, _ int) ([]FeedItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

// fakeTranslator passes text through unchanged, tagging it as translated.
type fakeTranslator struct{}

func (fakeTranslator) Translate(_ context.Context, text, _ string) (string, error) {
	return text + " [translated]", nil
}

// fakeChartRenderer returns a fixed byte slice or a scripted error.
type fakeChartRenderer struct {
	png []byte
	err error
}

func (f *fakeChartRenderer) Render(_ context.Context, _ []Series, _ string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.png, nil
}

// fakeLanguageModel returns scripted responses in order, repeating the last.
type fakeLanguageModel struct {
	responses []string
	err       error
	calls     int
}

func (f *fakeLanguageModel) Complete(_ context.Context, _, _ string, _ float64, _ int) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

var errFakeTransient = NewTransientError(errors.New("upstream unavailable"))

func makeQuote() Quote {
	return Quote{Price: 71500, ChangePct: 1.2, Volume: 1000000, PER: 12.3, PBR: 1.1, ROE: 9.8, MarketCap: 4.1e14, Sector: "semiconductors"}
}

func makeNewsItem(title string, age time.Duration) NewsItem {
	return NewsItem{Title: title, URL: "https://news.example/" + title, PublishedAt: time.Now().Add(-age), Relevance: 0.8}
}
