package prediction

import (
	"fmt"
	"math"
)

// maxInsights caps the commentary length
const maxInsights = 6

// InsightInput carries everything the insight generator looks at: the last
// feature row, the prediction, and context the facade derives from the
// series. BuildInsights is a pure function of this struct.
type InsightInput struct {
	RSI                float64
	MACD               float64
	MACDSignal         float64
	VolumeRatio        float64
	Trend5Pct          float64 // Percent change of the close over the last 5 periods
	VolatilityPct      float64 // Recent return volatility, in percent
	PredictedChangePct float64
	HorizonDays        int
}

// InsightInputFromRow builds the generator input from the inference row
func InsightInputFromRow(row map[string]float64, predictedChangePct float64, horizonDays int, trend5Pct float64) InsightInput {
	return InsightInput{
		RSI:                row["rsi_14"],
		MACD:               row["macd"],
		MACDSignal:         row["macd_signal"],
		VolumeRatio:        row["volume_ratio"],
		VolatilityPct:      row["volatility_20"],
		Trend5Pct:          trend5Pct,
		PredictedChangePct: predictedChangePct,
		HorizonDays:        horizonDays,
	}
}

// BuildInsights produces 3-6 short strings summarizing the prediction's
// rationale. The rule order is fixed so output is stable across calls.
func BuildInsights(in InsightInput) []string {
	insights := make([]string, 0, maxInsights)

	insights = append(insights, horizonDescriptor(in.HorizonDays))

	switch {
	case in.RSI >= 70:
		insights = append(insights, fmt.Sprintf("RSI at %.1f indicates overbought conditions", in.RSI))
	case in.RSI <= 30:
		insights = append(insights, fmt.Sprintf("RSI at %.1f indicates oversold conditions", in.RSI))
	default:
		insights = append(insights, fmt.Sprintf("RSI at %.1f is in neutral territory", in.RSI))
	}

	if in.MACD > in.MACDSignal {
		insights = append(insights, "MACD above signal line suggests bullish momentum")
	} else {
		insights = append(insights, "MACD below signal line suggests bearish pressure")
	}

	if in.VolatilityPct > 5 {
		insights = append(insights, fmt.Sprintf("high volatility (%.1f%%) increases prediction uncertainty", in.VolatilityPct))
	} else if in.VolatilityPct < 2 {
		insights = append(insights, fmt.Sprintf("low volatility (%.1f%%) suggests stable price action", in.VolatilityPct))
	}

	if math.Abs(in.Trend5Pct) > 3 {
		if in.Trend5Pct > 0 {
			insights = append(insights, fmt.Sprintf("price is up %.1f%% over the last 5 periods", in.Trend5Pct))
		} else {
			insights = append(insights, fmt.Sprintf("price is down %.1f%% over the last 5 periods", -in.Trend5Pct))
		}
	}

	if in.VolumeRatio > 1.5 {
		insights = append(insights, fmt.Sprintf("volume at %.1fx average signals unusual activity", in.VolumeRatio))
	}

	if math.Abs(in.PredictedChangePct) > 3 {
		insights = append(insights, fmt.Sprintf("model projects a significant move of %.1f%%", in.PredictedChangePct))
	}

	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	return insights
}

func horizonDescriptor(days int) string {
	switch {
	case days <= 1:
		return fmt.Sprintf("short-term outlook (%d day)", days)
	case days <= 7:
		return fmt.Sprintf("medium-term outlook (%d days)", days)
	default:
		return fmt.Sprintf("long-term outlook (%d days)", days)
	}
}
