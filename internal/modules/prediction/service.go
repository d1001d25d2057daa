package prediction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cryptodeck/internal/config"
	"cryptodeck/internal/domain"
)

// fallbackInsight marks every fallback record so the UI renders it distinctly
const fallbackInsight = "using statistical fallback"

// maxFetchDays caps provider history requests
const maxFetchDays = 365

// Service is the predictor facade: the single entry point for callers and
// the only component that talks to the market-data port and the model
// store. It owns the in-process artifact cache.
//
// Predict never returns an error; every failure maps to a fallback record.
// Train never returns an error; failures map to (false, reason).
type Service struct {
	market   domain.MarketDataPort
	store    *Store
	pipeline *Pipeline
	cfg      config.PredictionConfig
	log      zerolog.Logger

	// mu guards the two maps; each asset's lock serializes its train and
	// predict flows while leaving distinct assets independent
	mu    sync.Mutex
	cache map[string]*Artifact
	locks map[string]*sync.Mutex
}

// NewService creates the predictor facade
func NewService(
	market domain.MarketDataPort,
	store *Store,
	pipeline *Pipeline,
	cfg config.PredictionConfig,
	log zerolog.Logger,
) *Service {
	return &Service{
		market:   market,
		store:    store,
		pipeline: pipeline,
		cfg:      cfg,
		log:      log.With().Str("service", "prediction").Logger(),
		cache:    make(map[string]*Artifact),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Train fetches history, builds features, fits the ensemble, and persists
// the artifact. Returns (true, message with holdout MAE/RMSE) on success
// and (false, human-readable reason) on any failure.
func (s *Service) Train(ctx context.Context, assetID string, horizonDays int) (bool, string) {
	lock := s.assetLock(assetID)
	lock.Lock()
	defer lock.Unlock()

	days := fetchDaysFor(horizonDays)
	artifact, err := s.trainLocked(ctx, assetID, days)
	if err != nil {
		s.log.Warn().Err(err).Str("asset", assetID).Msg("Training failed")
		return false, reasonFor(err)
	}

	return true, fmt.Sprintf("model trained on %d-day history (MAE %.3f, RMSE %.3f)",
		days, artifact.Metadata.MAE, artifact.Metadata.RMSE)
}

// Predict produces a prediction record for the asset at the given horizon.
// On any upstream failure it returns a fallback record rather than an error.
func (s *Service) Predict(ctx context.Context, assetID string, currentPrice float64, horizonDays int) Prediction {
	lock := s.assetLock(assetID)
	lock.Lock()
	defer lock.Unlock()

	fetchDays := fetchDaysFor(horizonDays)

	artifact, err := s.loadOrTrain(ctx, assetID, fetchDays)
	if err != nil {
		s.log.Warn().Err(err).Str("asset", assetID).Msg("No usable model, returning fallback")
		return s.fallback(assetID, currentPrice, horizonDays)
	}

	series, err := s.market.RecentSeries(ctx, assetID, fetchDays)
	if err != nil {
		s.log.Warn().Err(err).Str("asset", assetID).Msg("Provider unavailable, returning fallback")
		return s.fallback(assetID, currentPrice, horizonDays)
	}

	if currentPrice <= 0 && len(series) > 0 {
		currentPrice = series[len(series)-1].Close
	}

	frame := s.pipeline.Build(series)
	if frame.Empty() {
		s.log.Warn().Str("asset", assetID).Int("rows", len(series)).Msg("Feature frame empty, returning fallback")
		return s.fallback(assetID, currentPrice, horizonDays)
	}

	row := frame.InferenceRow()
	if !finiteVector(row) {
		s.log.Error().Str("asset", assetID).Msg("Non-finite values in inference row")
		return s.fallback(assetID, currentPrice, horizonDays, ErrNumericalInstability.Error())
	}

	// The ensemble always predicts the one-step change; longer horizons
	// scale the point prediction instead of forecasting recursively
	changePct := artifact.Ensemble.Predict(row) * horizonScale(horizonDays)

	lastRow := frame.LastRowMap()
	volPct := lastRow["volatility_20"]
	confidence := clamp(100-2*volPct-2*float64(horizonDays), 0, 95)

	insights := BuildInsights(InsightInputFromRow(lastRow, changePct, horizonDays, trend5Pct(series)))

	return Prediction{
		AssetID:                assetID,
		CurrentPrice:           currentPrice,
		PredictedPrice:         currentPrice * (1 + changePct/100),
		PredictedChangePercent: changePct,
		ConfidenceScore:        confidence,
		Direction:              directionOf(changePct),
		Strength:               strengthOf(changePct),
		TimeFrameDays:          horizonDays,
		Timestamp:              time.Now().UTC(),
		Insights:               insights,
		IsFallback:             false,
	}
}

// DeleteModel evicts an asset's artifact from cache and disk (user action)
func (s *Service) DeleteModel(assetID string) error {
	lock := s.assetLock(assetID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	delete(s.cache, assetID)
	s.mu.Unlock()

	return s.store.Delete(assetID)
}

// ListModels returns metadata for every persisted artifact
func (s *Service) ListModels() ([]StoredModel, error) {
	return s.store.List()
}

// trainLocked runs the training flow. Caller must hold the asset lock.
// The trained artifact is cached even when persisting it fails, so the
// session can keep predicting with it.
func (s *Service) trainLocked(ctx context.Context, assetID string, days int) (*Artifact, error) {
	series, err := s.market.RecentSeries(ctx, assetID, days)
	if err != nil {
		return nil, err
	}
	if len(series) < s.cfg.MinHistory {
		return nil, fmt.Errorf("%w: %d rows, need %d", ErrInsufficientData, len(series), s.cfg.MinHistory)
	}

	frame := s.pipeline.Build(series)
	X, y := frame.LabeledData()

	ensemble := NewEnsemble()
	metrics, err := ensemble.Fit(X, y, s.cfg.HoldoutFraction)
	if err != nil {
		return nil, err
	}

	artifact := &Artifact{
		FeatureColumns: s.pipeline.Columns(),
		Ensemble:       ensemble,
		Metadata: ArtifactMetadata{
			TrainedAt:       time.Now().UTC(),
			HorizonDays:     days,
			MAE:             metrics.MAE,
			RMSE:            metrics.RMSE,
			PipelineVersion: s.pipeline.Version(),
		},
	}

	s.mu.Lock()
	s.cache[assetID] = artifact
	s.mu.Unlock()

	s.log.Info().
		Str("asset", assetID).
		Int("rows", len(y)).
		Float64("mae", metrics.MAE).
		Float64("rmse", metrics.RMSE).
		Msg("Model trained")

	if err := s.store.Save(assetID, artifact); err != nil {
		return artifact, err
	}
	return artifact, nil
}

// loadOrTrain returns a compatible artifact from cache or disk, training
// one when absent or stale. Caller must hold the asset lock.
func (s *Service) loadOrTrain(ctx context.Context, assetID string, fetchDays int) (*Artifact, error) {
	s.mu.Lock()
	artifact, cached := s.cache[assetID]
	s.mu.Unlock()

	if cached && artifact.Compatible(s.pipeline.Version(), s.pipeline.Columns()) {
		return artifact, nil
	}

	artifact, ok, err := s.store.Load(assetID)
	if err == nil && ok && artifact.Compatible(s.pipeline.Version(), s.pipeline.Columns()) {
		s.mu.Lock()
		s.cache[assetID] = artifact
		s.mu.Unlock()
		return artifact, nil
	}
	if err == nil && ok {
		s.log.Info().Str("asset", assetID).Msg("Stored artifact is stale, retraining")
	}

	artifact, err = s.trainLocked(ctx, assetID, fetchDays)
	if err != nil && !errors.Is(err, ErrArtifactWrite) {
		return nil, err
	}
	// A write failure still leaves a usable in-memory artifact
	return artifact, nil
}

// fallback builds the well-known fallback record: +1% change, confidence 50
func (s *Service) fallback(assetID string, currentPrice float64, horizonDays int, extraInsights ...string) Prediction {
	const fallbackChangePct = 1.0

	return Prediction{
		AssetID:                assetID,
		CurrentPrice:           currentPrice,
		PredictedPrice:         currentPrice * (1 + fallbackChangePct/100),
		PredictedChangePercent: fallbackChangePct,
		ConfidenceScore:        50,
		Direction:              DirectionNeutral,
		Strength:               StrengthWeak,
		TimeFrameDays:          horizonDays,
		Timestamp:              time.Now().UTC(),
		Insights:               append([]string{fallbackInsight}, extraInsights...),
		IsFallback:             true,
	}
}

// assetLock returns the mutex serializing operations for one asset
func (s *Service) assetLock(assetID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[assetID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[assetID] = lock
	}
	return lock
}

// fetchDaysFor sizes the history request to the horizon. The floor covers
// the 30-row indicator warmup so short horizons still produce usable frames.
func fetchDaysFor(horizonDays int) int {
	days := horizonDays * 30
	if days < 90 {
		days = 90
	}
	if days > maxFetchDays {
		days = maxFetchDays
	}
	return days
}

// horizonScale maps a horizon to the fixed point-prediction multiplier:
// 1.0 at 1 day, 1.5 at 7 days, 2.0 at 30 days
func horizonScale(horizonDays int) float64 {
	switch {
	case horizonDays >= 30:
		return 2.0
	case horizonDays >= 7:
		return 1.5
	default:
		return 1.0
	}
}

// trend5Pct computes the percent change of the close over the last 5 periods
func trend5Pct(series domain.Series) float64 {
	n := len(series)
	if n < 6 {
		return 0
	}
	base := series[n-6].Close
	if base == 0 {
		return 0
	}
	return (series[n-1].Close - base) / base * 100
}

// reasonFor maps taxonomy errors to human-readable train failure messages
func reasonFor(err error) string {
	var provErr *domain.ProviderError
	switch {
	case errors.Is(err, ErrInsufficientData):
		return fmt.Sprintf("insufficient data: %v", err)
	case errors.As(err, &provErr):
		return fmt.Sprintf("provider unavailable: %v", err)
	case errors.Is(err, ErrArtifactWrite):
		return fmt.Sprintf("failed to persist model: %v", err)
	default:
		return err.Error()
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
