package marketdata

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"minerva/internal/tools"
	"minerva/pkg/errors"
)

// SyntheticSource generates deterministic market snapshots from the symbol
// and trade date alone. It stands in for a live market-data feed in local
// development and demos: the same (symbol, asOf) pair always yields the
// same data, so analysis runs are reproducible.
type SyntheticSource struct {
	historyDays int
}

// NewSyntheticSource creates a source producing historyDays of daily candles
func NewSyntheticSource(historyDays int) *SyntheticSource {
	if historyDays <= 0 {
		historyDays = 30
	}
	return &SyntheticSource{historyDays: historyDays}
}

// Fetch implements tools.DataSource
func (s *SyntheticSource) Fetch(_ context.Context, symbol string, asOf time.Time) (*tools.MarketSnapshot, error) {
	if symbol == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "symbol is required")
	}

	base := basePrice(symbol)
	history := make([]tools.Candle, 0, s.historyDays)
	for i := s.historyDays - 1; i >= 0; i-- {
		day := asOf.AddDate(0, 0, -i)
		history = append(history, candleFor(symbol, day, base))
	}
	today := history[len(history)-1]

	closes := make([]float64, len(history))
	for i, c := range history {
		closes[i] = c.Close
	}

	sentiment := "neutral"
	if today.Close > sma(closes, 20) {
		sentiment = "bullish"
	} else if today.Close < sma(closes, 20)*0.98 {
		sentiment = "bearish"
	}

	return &tools.MarketSnapshot{
		Symbol:  symbol,
		AsOf:    asOf,
		Open:    today.Open,
		High:    today.High,
		Low:     today.Low,
		Close:   today.Close,
		Volume:  today.Volume,
		History: history,
		Indicators: map[string]float64{
			"sma_5":  round2(sma(closes, 5)),
			"sma_20": round2(sma(closes, 20)),
			"rsi_14": round2(rsi(closes, 14)),
		},
		Fundamentals: map[string]string{
			"pe_ratio":   fmt.Sprintf("%.1f", 10+float64(seed(symbol)%300)/10),
			"market_cap": fmt.Sprintf("%dB", 5+seed(symbol)%500),
			"dividend":   fmt.Sprintf("%.2f%%", float64(seed(symbol)%400)/100),
		},
		Statements: map[string]string{
			"revenue_ttm":    fmt.Sprintf("%dM", 500+seed(symbol)%9500),
			"net_income_ttm": fmt.Sprintf("%dM", 50+seed(symbol)%950),
			"free_cash_flow": fmt.Sprintf("%dM", 40+seed(symbol)%800),
		},
		Headlines: []string{
			fmt.Sprintf("%s reports quarterly results", symbol),
			fmt.Sprintf("Analysts revise %s price targets", symbol),
		},
		MarketNews: []string{
			"Broad indexes mixed ahead of economic data",
			"Rate expectations steady after central bank remarks",
		},
		Sentiment: sentiment,
	}, nil
}

func seed(symbol string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return int64(h.Sum64() % math.MaxInt32)
}

func basePrice(symbol string) float64 {
	return 20 + float64(seed(symbol)%980)
}

func candleFor(symbol string, day time.Time, base float64) tools.Candle {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	_, _ = h.Write([]byte(day.Format("2006-01-02")))
	n := h.Sum64()

	// Walk the price within +/-10% of the base using the date hash
	drift := (float64(n%2001) - 1000) / 10000
	open := base * (1 + drift)
	spread := base * float64(n%300) / 10000
	high := open + spread
	low := open - spread
	cls := low + (high-low)*float64(n%101)/100

	return tools.Candle{
		Date:   day.Format("2006-01-02"),
		Open:   round2(open),
		High:   round2(high),
		Low:    round2(low),
		Close:  round2(cls),
		Volume: int64(500_000 + n%5_000_000),
	}
}

func sma(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	if period > len(values) {
		period = len(values)
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

func rsi(closes []float64, period int) float64 {
	if len(closes) < 2 {
		return 50
	}
	if period >= len(closes) {
		period = len(closes) - 1
	}
	gains, losses := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	if gains+losses == 0 {
		return 50
	}
	return 100 * gains / (gains + losses)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
