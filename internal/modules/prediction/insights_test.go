package prediction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietInput() InsightInput {
	return InsightInput{
		RSI:                50,
		MACD:               0.5,
		MACDSignal:         0.2,
		VolumeRatio:        1.0,
		Trend5Pct:          1.0,
		VolatilityPct:      3.0,
		PredictedChangePct: 1.0,
		HorizonDays:        7,
	}
}

func TestBuildInsightsBaseline(t *testing.T) {
	insights := BuildInsights(quietInput())

	// Horizon, RSI, and MACD always contribute one line each
	require.Len(t, insights, 3)
	assert.Contains(t, insights[0], "medium-term outlook")
	assert.Contains(t, insights[1], "neutral territory")
	assert.Contains(t, insights[2], "bullish momentum")
}

func TestBuildInsightsOverboughtAndOversold(t *testing.T) {
	in := quietInput()

	in.RSI = 75
	assert.Contains(t, BuildInsights(in)[1], "overbought")

	in.RSI = 25
	assert.Contains(t, BuildInsights(in)[1], "oversold")
}

func TestBuildInsightsVolatilityBuckets(t *testing.T) {
	in := quietInput()

	in.VolatilityPct = 6.5
	assert.Contains(t, strings.Join(BuildInsights(in), "\n"), "high volatility")

	in.VolatilityPct = 1.0
	assert.Contains(t, strings.Join(BuildInsights(in), "\n"), "low volatility")

	in.VolatilityPct = 3.0
	assert.NotContains(t, strings.Join(BuildInsights(in), "\n"), "volatility")
}

func TestBuildInsightsTrendAndVolume(t *testing.T) {
	in := quietInput()
	in.Trend5Pct = 4.2
	in.VolumeRatio = 2.0

	joined := strings.Join(BuildInsights(in), "\n")
	assert.Contains(t, joined, "up 4.2% over the last 5 periods")
	assert.Contains(t, joined, "unusual activity")

	in.Trend5Pct = -4.2
	assert.Contains(t, strings.Join(BuildInsights(in), "\n"), "down 4.2% over the last 5 periods")
}

func TestBuildInsightsCapsAtSix(t *testing.T) {
	in := InsightInput{
		RSI:                80,
		MACD:               1,
		MACDSignal:         0,
		VolumeRatio:        3,
		Trend5Pct:          10,
		VolatilityPct:      8,
		PredictedChangePct: 6,
		HorizonDays:        30,
	}

	insights := BuildInsights(in)
	assert.Len(t, insights, maxInsights)
}

func TestBuildInsightsIsStable(t *testing.T) {
	in := quietInput()
	assert.Equal(t, BuildInsights(in), BuildInsights(in))
}

func TestHorizonDescriptor(t *testing.T) {
	assert.Contains(t, horizonDescriptor(1), "short-term")
	assert.Contains(t, horizonDescriptor(7), "medium-term")
	assert.Contains(t, horizonDescriptor(30), "long-term")
}
