package tools

import (
	"context"
	"time"

	"minerva/pkg/errors"
)

// DataSource is the opaque market-data capability tools are built on. The
// concrete adapter (exchange API, cached feed, test double) lives outside
// this package.
type DataSource interface {
	Fetch(ctx context.Context, symbol string, asOf time.Time) (*MarketSnapshot, error)
}

// MarketSnapshot is the structured data a source returns for one symbol on
// one trade date.
type MarketSnapshot struct {
	Symbol       string             `json:"symbol"`
	AsOf         time.Time          `json:"as_of"`
	Open         float64            `json:"open"`
	High         float64            `json:"high"`
	Low          float64            `json:"low"`
	Close        float64            `json:"close"`
	Volume       int64              `json:"volume"`
	History      []Candle           `json:"history,omitempty"`
	Indicators   map[string]float64 `json:"indicators,omitempty"`
	Fundamentals map[string]string  `json:"fundamentals,omitempty"`
	Statements   map[string]string  `json:"statements,omitempty"`
	Headlines    []string           `json:"headlines,omitempty"`
	MarketNews   []string           `json:"market_news,omitempty"`
	Sentiment    string             `json:"sentiment,omitempty"`
}

// Candle is one historical daily bar.
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// RegisterMarketTools wires the catalog's tool names to a data source and
// registers them. Each tool exposes one slice of the snapshot so that role
// allow-lists scope what an agent can see.
func RegisterMarketTools(reg *Registry, source DataSource) {
	fetch := func(ctx context.Context, args Args) (*MarketSnapshot, error) {
		asOf, err := time.Parse("2006-01-02", args.AsOf)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid as-of date %q", args.AsOf)
		}
		return source.Fetch(ctx, args.Symbol, asOf)
	}

	reg.Register("get_stock_quote", New("get_stock_quote", "Fetch latest quote with OHLC and volume",
		func(ctx context.Context, args Args) (interface{}, error) {
			snap, err := fetch(ctx, args)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"symbol": snap.Symbol,
				"open":   snap.Open,
				"high":   snap.High,
				"low":    snap.Low,
				"close":  snap.Close,
				"volume": snap.Volume,
			}, nil
		}))

	reg.Register("get_stock_history", New("get_stock_history", "Retrieve historical daily candles",
		func(ctx context.Context, args Args) (interface{}, error) {
			snap, err := fetch(ctx, args)
			if err != nil {
				return nil, err
			}
			return snap.History, nil
		}))

	reg.Register("get_stock_indicators", New("get_stock_indicators", "Compute common technical indicators",
		func(ctx context.Context, args Args) (interface{}, error) {
			snap, err := fetch(ctx, args)
			if err != nil {
				return nil, err
			}
			return snap.Indicators, nil
		}))

	reg.Register("get_fundamentals", New("get_fundamentals", "Company fundamentals and key ratios",
		func(ctx context.Context, args Args) (interface{}, error) {
			snap, err := fetch(ctx, args)
			if err != nil {
				return nil, err
			}
			return snap.Fundamentals, nil
		}))

	reg.Register("get_financial_statements", New("get_financial_statements", "Income statement, balance sheet, cash flow",
		func(ctx context.Context, args Args) (interface{}, error) {
			snap, err := fetch(ctx, args)
			if err != nil {
				return nil, err
			}
			return snap.Statements, nil
		}))

	reg.Register("get_stock_news", New("get_stock_news", "Latest news headlines for a symbol",
		func(ctx context.Context, args Args) (interface{}, error) {
			snap, err := fetch(ctx, args)
			if err != nil {
				return nil, err
			}
			return snap.Headlines, nil
		}))

	reg.Register("get_market_news", New("get_market_news", "Broad market and macro headlines",
		func(ctx context.Context, args Args) (interface{}, error) {
			snap, err := fetch(ctx, args)
			if err != nil {
				return nil, err
			}
			return snap.MarketNews, nil
		}))

	reg.Register("get_social_sentiment", New("get_social_sentiment", "Aggregate social media sentiment",
		func(ctx context.Context, args Args) (interface{}, error) {
			snap, err := fetch(ctx, args)
			if err != nil {
				return nil, err
			}
			return snap.Sentiment, nil
		}))
}
