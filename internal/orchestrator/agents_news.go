package orchestrator

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/KE-WhyNot/BE-LLM/graph"
)

// NewsAgent merges news from the knowledge-graph store and the real-time
// feed, deduplicating by URL and by title similarity, then ranks the
// survivors by a relevance/recency blend.
type NewsAgent struct {
	NewsGraph      NewsGraph
	Feed           NewsFeed
	Translator     Translator
	TopK           int
	MinScore       float64
	DedupThreshold float64
	Metrics        *graph.PrometheusMetrics
}

func (a *NewsAgent) Name() string { return AgentNews }

func (a *NewsAgent) Process(ctx context.Context, query string, snapshot State) AgentResult {
	return runTimed(AgentNews, func() (interface{}, *StateError) {
		keywords := strings.Fields(query)

		var fromGraph []Article
		var fromFeed []FeedItem
		var graphErr, feedErr error

		if a.NewsGraph != nil {
			fromGraph, graphErr = withRetry(ctx, AgentNews, a.Metrics, func() ([]Article, error) {
				return a.NewsGraph.Similar(ctx, nil, a.TopK, a.MinScore)
			})
		}
		if a.Feed != nil {
			fromFeed, feedErr = withRetry(ctx, AgentNews, a.Metrics, func() ([]FeedItem, error) {
				return a.Feed.Fetch(ctx, keywords, a.TopK)
			})
		}
		if graphErr != nil && feedErr != nil {
			return nil, classifyCollaboratorError(AgentNews, feedErr)
		}

		items := make([]NewsItem, 0, len(fromGraph)+len(fromFeed))
		for _, art := range fromGraph {
			items = append(items, NewsItem{
				Title:       art.Title,
				URL:         art.URL,
				PublishedAt: time.Unix(art.PublishedAt, 0),
				Language:    "ko",
				Body:        art.Snippet,
				Relevance:   art.Score,
			})
		}
		for _, f := range fromFeed {
			body := f.Body
			if f.Language != "ko" && a.Translator != nil {
				translated, err := a.Translator.Translate(ctx, body, "ko")
				if err == nil {
					body = translated
				}
			}
			items = append(items, NewsItem{
				Title:       f.Title,
				URL:         f.URL,
				PublishedAt: time.Unix(f.PublishedAt, 0),
				Language:    "ko",
				Body:        body,
				Relevance:   0.5,
			})
		}

		items = dedupeNews(items, a.DedupThreshold)
		scoreNews(items)
		sort.Slice(items, func(i, j int) bool { return items[i].Score > items[j].Score })
		if len(items) > a.TopK {
			items = items[:a.TopK]
		}
		return items, nil
	})
}

// dedupeNews removes items sharing a URL or whose titles are near-duplicates
// (Jaccard similarity over whitespace-tokenized titles) above threshold.
func dedupeNews(items []NewsItem, threshold float64) []NewsItem {
	seen := make(map[string]bool)
	out := make([]NewsItem, 0, len(items))

	for _, item := range items {
		if item.URL != "" && seen[item.URL] {
			continue
		}
		duplicate := false
		for _, kept := range out {
			if titleJaccard(item.Title, kept.Title) >= threshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		if item.URL != "" {
			seen[item.URL] = true
		}
		out = append(out, item)
	}
	return out
}

func titleJaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	intersection := 0
	union := make(map[string]bool, len(setA)+len(setB))
	for tok := range setA {
		union[tok] = true
		if setB[tok] {
			intersection++
		}
	}
	for tok := range setB {
		union[tok] = true
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}

func tokenSet(s string) map[string]bool {
	tokens := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// scoreNews sets Score = 0.7*relevance + recency bonus, where the recency
// bonus is +0.3 within 24h, +0.2 within 48h, else +0.1.
func scoreNews(items []NewsItem) {
	now := time.Now()
	for i := range items {
		age := now.Sub(items[i].PublishedAt)
		var recency float64
		switch {
		case age <= 24*time.Hour:
			recency = 0.3
		case age <= 48*time.Hour:
			recency = 0.2
		default:
			recency = 0.1
		}
		items[i].Score = 0.7*items[i].Relevance + recency
	}
}
