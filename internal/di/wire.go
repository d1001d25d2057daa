package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"cryptodeck/internal/config"
)

// Wire initializes all dependencies and returns a fully configured
// container plus the background jobs. Order: databases, then services,
// then jobs.
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, *JobInstances, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := InitializeServices(container, cfg, log); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	jobs := RegisterJobs(container, log)

	log.Info().Msg("Dependency injection wiring completed")
	return container, jobs, nil
}
