package sentiment

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "cryptodeck/internal/testing"
)

type staticWeights map[string]float64

func (w staticWeights) AssetWeights(ctx context.Context) (map[string]float64, error) {
	return w, nil
}

func TestScoreAssetBounds(t *testing.T) {
	market := testingpkg.NewMockMarketDataPort()
	market.SetSeries("bitcoin", testingpkg.TrendSeries(60, 100, 0.5))

	svc := NewService(market, nil, zerolog.Nop())
	score, err := svc.ScoreAsset(context.Background(), "bitcoin")
	require.NoError(t, err)

	assert.Equal(t, "bitcoin", score.AssetID)
	assert.GreaterOrEqual(t, score.Score, -1.0)
	assert.LessOrEqual(t, score.Score, 1.0)
	assert.Equal(t, 60, score.SampleDays)
	assert.Contains(t, []Label{LabelBearish, LabelNeutral, LabelBullish}, score.Label)
}

func TestScoreAssetRejectsShortHistory(t *testing.T) {
	market := testingpkg.NewMockMarketDataPort()
	market.SetSeries("bitcoin", testingpkg.TrendSeries(10, 100, 0.5))

	svc := NewService(market, nil, zerolog.Nop())
	_, err := svc.ScoreAsset(context.Background(), "bitcoin")
	assert.Error(t, err)
}

func TestRisingSeriesReadsMoreBullishThanFalling(t *testing.T) {
	market := testingpkg.NewMockMarketDataPort()
	market.SetSeries("riser", testingpkg.TrendSeries(60, 100, 1.0))
	market.SetSeries("faller", testingpkg.TrendSeries(60, 100, -1.0))

	svc := NewService(market, nil, zerolog.Nop())

	up, err := svc.ScoreAsset(context.Background(), "riser")
	require.NoError(t, err)
	down, err := svc.ScoreAsset(context.Background(), "faller")
	require.NoError(t, err)

	// Momentum and EMA distance dominate in opposite directions
	assert.Greater(t, up.Momentum, down.Momentum)
	assert.Greater(t, up.EMA, down.EMA)
}

func TestScoreMarketSimpleMeanWithoutWeights(t *testing.T) {
	market := testingpkg.NewMockMarketDataPort()
	market.SetSeries("bitcoin", testingpkg.TrendSeries(60, 100, 0.5))
	market.SetSeries("ethereum", testingpkg.TrendSeries(60, 50, 0.5))

	svc := NewService(market, nil, zerolog.Nop())
	result, err := svc.ScoreMarket(context.Background(), []string{"bitcoin", "ethereum"})
	require.NoError(t, err)

	assert.False(t, result.Weighted)
	require.Len(t, result.Assets, 2)

	want := (result.Assets[0].Score + result.Assets[1].Score) / 2
	assert.InDelta(t, want, result.Score, 1e-9)
}

func TestScoreMarketUsesHoldingsWeights(t *testing.T) {
	market := testingpkg.NewMockMarketDataPort()
	market.SetSeries("bitcoin", testingpkg.TrendSeries(60, 100, 0.5))
	market.SetSeries("ethereum", testingpkg.TrendSeries(60, 50, 0.5))

	weights := staticWeights{"bitcoin": 3, "ethereum": 1}
	svc := NewService(market, weights, zerolog.Nop())

	result, err := svc.ScoreMarket(context.Background(), []string{"bitcoin", "ethereum"})
	require.NoError(t, err)
	require.True(t, result.Weighted)

	var btc, eth float64
	for _, score := range result.Assets {
		if score.AssetID == "bitcoin" {
			btc = score.Score
		} else {
			eth = score.Score
		}
	}
	assert.InDelta(t, (3*btc+eth)/4, result.Score, 1e-9)
}

func TestScoreMarketSkipsFailingAssets(t *testing.T) {
	market := testingpkg.NewMockMarketDataPort()
	market.SetSeries("bitcoin", testingpkg.TrendSeries(60, 100, 0.5))
	// "unknown" resolves to an empty series and fails to score

	svc := NewService(market, nil, zerolog.Nop())
	result, err := svc.ScoreMarket(context.Background(), []string{"bitcoin", "unknown"})
	require.NoError(t, err)
	assert.Len(t, result.Assets, 1)
}

func TestScoreMarketAllFailing(t *testing.T) {
	market := testingpkg.NewMockMarketDataPort()

	svc := NewService(market, nil, zerolog.Nop())
	_, err := svc.ScoreMarket(context.Background(), []string{"unknown"})
	assert.Error(t, err)
}
