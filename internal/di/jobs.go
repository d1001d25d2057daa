package di

import (
	"github.com/rs/zerolog"

	"cryptodeck/internal/clientdata"
	"cryptodeck/internal/modules/prediction"
)

// RegisterJobs builds the background job instances. Backup is nil when
// object storage is not configured.
func RegisterJobs(container *Container, log zerolog.Logger) *JobInstances {
	return &JobInstances{
		CacheCleanup: clientdata.NewCleanupJob(container.CacheRepo, log),
		Retrain:      prediction.NewRetrainJob(container.PredictionService, log),
		Backup:       container.BackupService,
	}
}
