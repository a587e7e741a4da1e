package orchestrator

import (
	"context"
	"testing"
	"time"
)

func TestNewsAgent_DedupesAndRanksByScore(t *testing.T) {
	agent := &NewsAgent{
		NewsGraph: &fakeNewsGraph{articles: []Article{
			{Title: "삼성전자 실적 발표", URL: "https://a/1", PublishedAt: time.Now().Add(-time.Hour).Unix(), Score: 0.9},
		}},
		Feed: &fakeNewsFeed{items: []FeedItem{
			{Title: "삼성전자 실적 발표", URL: "https://a/1", PublishedAt: time.Now().Add(-time.Hour).Unix(), Language: "ko"},
			{Title: "오래된 기사", URL: "https://a/2", PublishedAt: time.Now().Add(-72 * time.Hour).Unix(), Language: "ko"},
		}},
		TopK:           10,
		DedupThreshold: 0.9,
	}

	result := agent.Process(context.Background(), "삼성전자", State{})

	if !result.Success {
		t.Fatalf("expected success, got %v", result.Error)
	}
	items := result.Payload.([]NewsItem)
	if len(items) != 2 {
		t.Fatalf("expected 2 items after URL dedup, got %d: %+v", len(items), items)
	}
	if items[0].Score < items[1].Score {
		t.Errorf("items should be sorted by descending score: %+v", items)
	}
}

func TestNewsAgent_BothSourcesFail(t *testing.T) {
	agent := &NewsAgent{
		NewsGraph: &fakeNewsGraph{err: errFakeTransient},
		Feed:      &fakeNewsFeed{err: errFakeTransient},
		TopK:      10,
	}

	result := agent.Process(context.Background(), "query", State{})

	if result.Success {
		t.Fatal("expected failure when both sources error")
	}
}

func TestNewsAgent_OneSourceFailsStillSucceeds(t *testing.T) {
	agent := &NewsAgent{
		NewsGraph: &fakeNewsGraph{err: errFakeTransient},
		Feed: &fakeNewsFeed{items: []FeedItem{
			{Title: "뉴스", URL: "https://b/1", PublishedAt: time.Now().Unix(), Language: "ko"},
		}},
		TopK: 10,
	}

	result := agent.Process(context.Background(), "query", State{})

	if !result.Success {
		t.Fatalf("expected partial success, got %v", result.Error)
	}
}

func TestTitleJaccard(t *testing.T) {
	if sim := titleJaccard("삼성전자 실적 발표", "삼성전자 실적 발표"); sim != 1 {
		t.Errorf("identical titles should score 1, got %v", sim)
	}
	if sim := titleJaccard("삼성전자 실적 발표", "전혀 다른 기사 제목"); sim > 0.5 {
		t.Errorf("unrelated titles should score low, got %v", sim)
	}
}

func TestScoreNews_RecencyBonus(t *testing.T) {
	items := []NewsItem{
		{Relevance: 1.0, PublishedAt: time.Now().Add(-1 * time.Hour)},
		{Relevance: 1.0, PublishedAt: time.Now().Add(-36 * time.Hour)},
		{Relevance: 1.0, PublishedAt: time.Now().Add(-96 * time.Hour)},
	}
	scoreNews(items)

	want := []float64{0.7 + 0.3, 0.7 + 0.2, 0.7 + 0.1}
	for i, w := range want {
		if diff := items[i].Score - w; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("items[%d].Score = %v, want %v", i, items[i].Score, w)
		}
	}
}
