package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"cryptodeck/internal/clientdata"
	"cryptodeck/internal/config"
	"cryptodeck/internal/database"
	"cryptodeck/internal/modules/portfolio"
)

// InitializeDatabases opens both databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// ledger.db - transactions are the financial record, maximum durability
	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger database: %w", err)
	}
	container.LedgerDB = ledgerDB

	// cache.db - disposable provider response cache
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		ledgerDB.Close()
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	container.LedgerRepo = portfolio.NewRepository(ledgerDB.Conn(), log)
	if err := container.LedgerRepo.EnsureSchema(); err != nil {
		container.Close()
		return nil, err
	}

	container.CacheRepo = clientdata.NewRepository(cacheDB.Conn())
	if err := container.CacheRepo.EnsureSchema(); err != nil {
		container.Close()
		return nil, err
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("Databases initialized")
	return container, nil
}
