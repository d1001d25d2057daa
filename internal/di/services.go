package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"cryptodeck/internal/clients/coingecko"
	"cryptodeck/internal/config"
	"cryptodeck/internal/modules/charts"
	"cryptodeck/internal/modules/portfolio"
	"cryptodeck/internal/modules/prediction"
	"cryptodeck/internal/modules/sentiment"
	"cryptodeck/internal/reliability"
)

// InitializeServices builds clients and services on top of the databases
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.CoinGeckoClient = coingecko.NewClient(
		cfg.CoinGeckoBaseURL,
		cfg.CoinGeckoAPIKey,
		cfg.ProviderTimeout,
		cfg.ProviderMinInterval,
		log,
	)
	container.MarketData = coingecko.NewAdapter(
		container.CoinGeckoClient,
		container.CacheRepo,
		cfg.Currency,
		cfg.SeriesCacheTTL,
		cfg.QuoteCacheTTL,
		log,
	)

	modelStore, err := prediction.NewStore(cfg.ModelsDir(), log)
	if err != nil {
		return fmt.Errorf("failed to initialize model store: %w", err)
	}
	container.PredictionService = prediction.NewService(
		container.MarketData,
		modelStore,
		prediction.NewPipeline(cfg.Prediction.MinPredict),
		cfg.Prediction,
		log,
	)

	container.PortfolioService = portfolio.NewService(container.LedgerRepo, container.MarketData, log)
	container.SentimentService = sentiment.NewService(container.MarketData, container.PortfolioService, log)
	container.ChartsService = charts.NewService(container.MarketData, log)

	if cfg.Backup.Enabled() {
		store, err := reliability.NewS3Client(context.Background(), cfg.Backup, log)
		if err != nil {
			return fmt.Errorf("failed to initialize object storage client: %w", err)
		}
		container.BackupService = reliability.NewBackupService(
			container.LedgerDB,
			cfg.ModelsDir(),
			store,
			cfg.Backup,
			log,
		)
	}

	return nil
}
