package orchestrator

import (
	"context"
	"testing"
)

func TestDataAgent_Process_Success(t *testing.T) {
	agent := &DataAgent{
		Symbols: &fakeSymbolLookup{table: map[string]string{"삼성전자": "005930"}},
		Market:  &fakeMarketData{quote: makeQuote()},
	}

	result := agent.Process(context.Background(), "삼성전자 주가 알려줘", State{})

	if !result.Success {
		t.Fatalf("expected success, got error %v", result.Error)
	}
	data, ok := result.Payload.(*FinancialData)
	if !ok {
		t.Fatalf("expected *FinancialData payload, got %T", result.Payload)
	}
	if data.Symbol != "005930" {
		t.Errorf("symbol = %q, want 005930", data.Symbol)
	}
}

func TestDataAgent_Process_SymbolNotFound(t *testing.T) {
	agent := &DataAgent{
		Symbols: &fakeSymbolLookup{table: map[string]string{}},
		Market:  &fakeMarketData{quote: makeQuote()},
	}

	result := agent.Process(context.Background(), "오늘 날씨 어때", State{})

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error.Kind != ErrSymbolNotFound {
		t.Errorf("kind = %q, want symbol_not_found", result.Error.Kind)
	}
	if !result.Error.Recoverable {
		t.Error("symbol_not_found should be recoverable")
	}
}

func TestDataAgent_Process_TransientRetrySucceeds(t *testing.T) {
	calls := 0
	market := &fakeMarketDataFunc{fn: func() (Quote, error) {
		calls++
		if calls == 1 {
			return Quote{}, errFakeTransient
		}
		return makeQuote(), nil
	}}
	agent := &DataAgent{
		Symbols: &fakeSymbolLookup{table: map[string]string{"삼성전자": "005930"}},
		Market:  market,
	}

	result := agent.Process(context.Background(), "삼성전자", State{})

	if !result.Success {
		t.Fatalf("expected eventual success after retry, got %v", result.Error)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (one retry)", calls)
	}
}

func TestIsSimpleRequest(t *testing.T) {
	cases := []struct {
		name     string
		analysis *Analysis
		want     bool
	}{
		{"nil analysis", nil, false},
		{"simple single data", &Analysis{PrimaryIntent: ActionData, Complexity: ComplexitySimple, RequiredAgents: []string{AgentData}}, true},
		{"simple but multiple agents", &Analysis{PrimaryIntent: ActionData, Complexity: ComplexitySimple, RequiredAgents: []string{AgentData, AgentNews}}, false},
		{"moderate data", &Analysis{PrimaryIntent: ActionData, Complexity: ComplexityModerate, RequiredAgents: []string{AgentData}}, false},
		{"simple analysis intent", &Analysis{PrimaryIntent: ActionAnalysis, Complexity: ComplexitySimple, RequiredAgents: []string{AgentData}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsSimpleRequest(tc.analysis); got != tc.want {
				t.Errorf("IsSimpleRequest() = %v, want %v", got, tc.want)
			}
		})
	}
}

// fakeMarketDataFunc lets a test script call-by-call behavior.
type fakeMarketDataFunc struct {
	fn func() (Quote, error)
}

func (f *fakeMarketDataFunc) Quote(_ context.Context, _ string) (Quote, error) {
	return f.fn()
}
