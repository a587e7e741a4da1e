package orchestrator

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KE-WhyNot/BE-LLM/graph"
)

// DataAgent extracts a ticker symbol from the query, fetches its quote, and
// decides whether the request is simple enough to short-circuit straight to
// Responder.
type DataAgent struct {
	Symbols SymbolLookup
	Market  MarketData
	Metrics *graph.PrometheusMetrics
}

func (a *DataAgent) Name() string { return AgentData }

func (a *DataAgent) Process(ctx context.Context, query string, snapshot State) AgentResult {
	return runTimed(AgentData, func() (interface{}, *StateError) {
		symbol, found := a.Symbols.Resolve(ctx, query)
		if !found {
			return nil, &StateError{Kind: ErrSymbolNotFound, Node: AgentData, Message: "no ticker symbol recognized in query", Recoverable: true}
		}

		quote, err := withRetry(ctx, AgentData, a.Metrics, func() (Quote, error) {
			return a.Market.Quote(ctx, symbol)
		})
		if err != nil {
			return nil, classifyCollaboratorError(AgentData, err)
		}

		data := &FinancialData{
			Symbol:    symbol,
			Price:     quote.Price,
			ChangePct: quote.ChangePct,
			Volume:    quote.Volume,
			PER:       quote.PER,
			PBR:       quote.PBR,
			ROE:       quote.ROE,
			MarketCap: quote.MarketCap,
			Sector:    quote.Sector,
		}
		return data, nil
	})
}

// IsSimpleRequest reports whether a request qualifies for the DataAgent ->
// Responder short-circuit: intent=data, complexity=simple, a single symbol,
// and no other required agents.
func IsSimpleRequest(analysis *Analysis) bool {
	if analysis == nil {
		return false
	}
	if analysis.PrimaryIntent != ActionData || analysis.Complexity != ComplexitySimple {
		return false
	}
	return len(analysis.RequiredAgents) == 1 && analysis.RequiredAgents[0] == AgentData
}

// formatSimpleReply renders the short-circuit reply for a simple
// single-symbol data request, bypassing ResultCombiner/ConfidenceCalculator.
// Price is rendered with thousands separators ("71,500") and the change
// percentage drops any trailing zero ("+2.1%", not "+2.10%").
func formatSimpleReply(data *FinancialData) string {
	if data == nil {
		return ""
	}
	sign := "+"
	if data.ChangePct < 0 {
		sign = ""
	}
	return fmt.Sprintf("%s: %s (%s%s%%)", data.Symbol, formatGroupedPrice(data.Price), sign, formatTrimmedPercent(data.ChangePct))
}

// formatGroupedPrice renders a price with thousands separators, rounding to
// at most two decimal places and dropping them entirely when the value is a
// whole number.
func formatGroupedPrice(price float64) string {
	rounded := math.Round(price*100) / 100
	return groupThousands(strconv.FormatFloat(rounded, 'f', -1, 64))
}

// formatTrimmedPercent renders a percentage with the minimal digits needed,
// so 2.10 becomes "2.1" and 2.0 becomes "2".
func formatTrimmedPercent(pct float64) string {
	return strconv.FormatFloat(pct, 'f', -1, 64)
}

// groupThousands inserts "," every three digits in s's integer part,
// leaving any fractional part and sign untouched.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	n := len(intPart)
	if n <= 3 {
		out := intPart + frac
		if neg {
			out = "-" + out
		}
		return out
	}

	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
		if n > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < n; i += 3 {
		b.WriteString(intPart[i : i+3])
		if i+3 < n {
			b.WriteByte(',')
		}
	}
	b.WriteString(frac)

	out := b.String()
	if neg {
		out = "-" + out
	}
	return out
}
