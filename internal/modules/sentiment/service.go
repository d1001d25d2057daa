// Package sentiment scores assets on a [-1, 1] scale from technical
// posture: RSI, distance from the 20-period EMA, short-term momentum, and
// the volume trend.
package sentiment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"cryptodeck/internal/domain"
	"cryptodeck/pkg/formulas"
)

// Label buckets a sentiment score for display
type Label string

const (
	LabelBearish Label = "bearish"
	LabelNeutral Label = "neutral"
	LabelBullish Label = "bullish"
)

// Score is the per-asset sentiment result with its component breakdown
type Score struct {
	AssetID    string    `json:"asset_id"`
	Score      float64   `json:"score"` // [-1, 1]
	Label      Label     `json:"label"`
	RSI        float64   `json:"rsi_component"`
	EMA        float64   `json:"ema_component"`
	Momentum   float64   `json:"momentum_component"`
	Volume     float64   `json:"volume_component"`
	Timestamp  time.Time `json:"timestamp"`
	SampleDays int       `json:"sample_days"`
}

// MarketScore is the aggregate over a set of assets
type MarketScore struct {
	Score     float64   `json:"score"`
	Label     Label     `json:"label"`
	Assets    []Score   `json:"assets"`
	Weighted  bool      `json:"holdings_weighted"`
	Timestamp time.Time `json:"timestamp"`
}

// Component weights sum to 1
const (
	weightRSI      = 0.35
	weightEMA      = 0.25
	weightMomentum = 0.25
	weightVolume   = 0.15
)

// historyDays is the window fetched per asset; enough for EMA(20) and the
// volume trend to settle
const historyDays = 60

// WeightProvider supplies per-asset weights for the market aggregate.
// The portfolio service implements it with market-value weights.
type WeightProvider interface {
	AssetWeights(ctx context.Context) (map[string]float64, error)
}

// Service computes sentiment scores from market data
type Service struct {
	market  domain.MarketDataPort
	weights WeightProvider
	log     zerolog.Logger
}

// NewService creates the sentiment service. weights may be nil; the market
// aggregate then falls back to a simple mean.
func NewService(market domain.MarketDataPort, weights WeightProvider, log zerolog.Logger) *Service {
	return &Service{
		market:  market,
		weights: weights,
		log:     log.With().Str("service", "sentiment").Logger(),
	}
}

// ScoreAsset computes the sentiment score for one asset
func (s *Service) ScoreAsset(ctx context.Context, assetID string) (Score, error) {
	series, err := s.market.RecentSeries(ctx, assetID, historyDays)
	if err != nil {
		return Score{}, fmt.Errorf("failed to fetch series for %s: %w", assetID, err)
	}
	if len(series) < 21 {
		return Score{}, fmt.Errorf("insufficient history for %s: %d rows", assetID, len(series))
	}

	closes := series.Closes()
	volumes := series.Volumes()

	rsiComp := rsiComponent(closes)
	emaComp := emaComponent(closes)
	momComp := momentumComponent(closes)
	volComp := volumeComponent(volumes)

	score := weightRSI*rsiComp + weightEMA*emaComp + weightMomentum*momComp + weightVolume*volComp

	return Score{
		AssetID:    assetID,
		Score:      clampScore(score),
		Label:      labelFor(score),
		RSI:        rsiComp,
		EMA:        emaComp,
		Momentum:   momComp,
		Volume:     volComp,
		Timestamp:  time.Now().UTC(),
		SampleDays: len(series),
	}, nil
}

// ScoreMarket aggregates sentiment over the given assets. With a weight
// provider the mean is holdings-weighted; assets that fail to score are
// skipped and logged.
func (s *Service) ScoreMarket(ctx context.Context, assetIDs []string) (MarketScore, error) {
	scores := make([]Score, 0, len(assetIDs))
	for _, assetID := range assetIDs {
		score, err := s.ScoreAsset(ctx, assetID)
		if err != nil {
			s.log.Warn().Err(err).Str("asset", assetID).Msg("Skipping asset in market sentiment")
			continue
		}
		scores = append(scores, score)
	}
	if len(scores) == 0 {
		return MarketScore{}, fmt.Errorf("no assets could be scored")
	}

	weights := s.assetWeights(ctx)
	var weightedSum, weightTotal float64
	useWeights := false
	for _, score := range scores {
		if w, ok := weights[score.AssetID]; ok && w > 0 {
			weightedSum += score.Score * w
			weightTotal += w
			useWeights = true
		}
	}

	var aggregate float64
	if useWeights && weightTotal > 0 {
		aggregate = weightedSum / weightTotal
	} else {
		useWeights = false
		for _, score := range scores {
			aggregate += score.Score
		}
		aggregate /= float64(len(scores))
	}

	return MarketScore{
		Score:     clampScore(aggregate),
		Label:     labelFor(aggregate),
		Assets:    scores,
		Weighted:  useWeights,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (s *Service) assetWeights(ctx context.Context) map[string]float64 {
	if s.weights == nil {
		return nil
	}
	weights, err := s.weights.AssetWeights(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Weight provider failed, using simple mean")
		return nil
	}
	return weights
}

// rsiComponent maps RSI to [-1, 1]: oversold reads bullish (mean
// reversion), overbought bearish
func rsiComponent(closes []float64) float64 {
	rsi := formulas.CalculateRSI(closes, 14)
	if rsi == nil {
		return 0
	}
	return clampScore((50 - *rsi) / 50)
}

// emaComponent maps the percent distance from EMA(20) to [-1, 1]; trading
// 10% above the EMA saturates bullish
func emaComponent(closes []float64) float64 {
	dist := formulas.CalculateDistanceFromEMA(closes, 20)
	if dist == nil {
		return 0
	}
	return clampScore(*dist / 10)
}

// momentumComponent maps the 7-period percent change to [-1, 1]; a 15%
// move saturates
func momentumComponent(closes []float64) float64 {
	n := len(closes)
	if n < 8 || closes[n-8] == 0 {
		return 0
	}
	change := (closes[n-1] - closes[n-8]) / closes[n-8] * 100
	return clampScore(change / 15)
}

// volumeComponent compares the recent 7-period average volume against the
// prior 14 periods; a doubling saturates bullish
func volumeComponent(volumes []float64) float64 {
	n := len(volumes)
	if n < 21 {
		return 0
	}
	recent := formulas.Mean(volumes[n-7:])
	prior := formulas.Mean(volumes[n-21 : n-7])
	if prior == 0 {
		return 0
	}
	return clampScore(recent/prior - 1)
}

func labelFor(score float64) Label {
	switch {
	case score > 0.2:
		return LabelBullish
	case score < -0.2:
		return LabelBearish
	default:
		return LabelNeutral
	}
}

func clampScore(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
