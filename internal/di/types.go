// Package di provides dependency injection wiring and the Container type
// holding every shared instance of the application.
package di

import (
	"cryptodeck/internal/clientdata"
	"cryptodeck/internal/clients/coingecko"
	"cryptodeck/internal/database"
	"cryptodeck/internal/domain"
	"cryptodeck/internal/modules/charts"
	"cryptodeck/internal/modules/portfolio"
	"cryptodeck/internal/modules/prediction"
	"cryptodeck/internal/modules/sentiment"
	"cryptodeck/internal/reliability"
)

// Container holds all application dependencies. Created by Wire and passed
// to the server; handlers reach services only through it.
type Container struct {
	// Databases
	LedgerDB *database.DB
	CacheDB  *database.DB

	// Clients and the market-data port
	CoinGeckoClient *coingecko.Client
	MarketData      domain.MarketDataPort

	// Repositories
	CacheRepo  *clientdata.Repository
	LedgerRepo *portfolio.Repository

	// Services
	PredictionService *prediction.Service
	PortfolioService  *portfolio.Service
	SentimentService  *sentiment.Service
	ChartsService     *charts.Service

	// Backup is nil unless object storage is configured
	BackupService *reliability.BackupService
}

// JobInstances holds the background jobs handed to the scheduler
type JobInstances struct {
	CacheCleanup *clientdata.CleanupJob
	Retrain      *prediction.RetrainJob
	Backup       *reliability.BackupService
}

// Close releases every database held by the container
func (c *Container) Close() {
	if c.LedgerDB != nil {
		_ = c.LedgerDB.Close()
	}
	if c.CacheDB != nil {
		_ = c.CacheDB.Close()
	}
}
