package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minerva/pkg/errors"
)

func TestSyntheticSource_IsDeterministic(t *testing.T) {
	source := NewSyntheticSource(30)
	asOf := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	first, err := source.Fetch(context.Background(), "AAPL", asOf)
	require.NoError(t, err)
	second, err := source.Fetch(context.Background(), "AAPL", asOf)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "AAPL", first.Symbol)
	assert.Len(t, first.History, 30)
}

func TestSyntheticSource_DifferentSymbolsDiffer(t *testing.T) {
	source := NewSyntheticSource(10)
	asOf := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	a, err := source.Fetch(context.Background(), "AAPL", asOf)
	require.NoError(t, err)
	b, err := source.Fetch(context.Background(), "TSLA", asOf)
	require.NoError(t, err)

	assert.NotEqual(t, a.Close, b.Close)
}

func TestSyntheticSource_SnapshotShape(t *testing.T) {
	source := NewSyntheticSource(30)
	snap, err := source.Fetch(context.Background(), "MSFT", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, snap.High, snap.Low)
	assert.Positive(t, snap.Volume)
	assert.Contains(t, snap.Indicators, "rsi_14")
	assert.GreaterOrEqual(t, snap.Indicators["rsi_14"], 0.0)
	assert.LessOrEqual(t, snap.Indicators["rsi_14"], 100.0)
	assert.Contains(t, snap.Fundamentals, "pe_ratio")
	assert.NotEmpty(t, snap.Headlines)
	assert.Contains(t, []string{"bullish", "bearish", "neutral"}, snap.Sentiment)

	// The latest history candle matches the headline quote
	last := snap.History[len(snap.History)-1]
	assert.Equal(t, snap.Close, last.Close)
}

func TestSyntheticSource_EmptySymbolRejected(t *testing.T) {
	source := NewSyntheticSource(10)
	_, err := source.Fetch(context.Background(), "", time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}
