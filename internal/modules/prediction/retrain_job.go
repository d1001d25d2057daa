package prediction

import (
	"context"

	"github.com/rs/zerolog"
)

// RetrainJob refreshes every stored model overnight so predictions keep
// tracking recent price action
type RetrainJob struct {
	service *Service
	log     zerolog.Logger
}

// NewRetrainJob creates the nightly retrain job
func NewRetrainJob(service *Service, log zerolog.Logger) *RetrainJob {
	return &RetrainJob{
		service: service,
		log:     log.With().Str("job", "model_retrain").Logger(),
	}
}

// Name implements scheduler.Job
func (j *RetrainJob) Name() string {
	return "model_retrain"
}

// Run retrains each stored model at the horizon it was trained for.
// Individual failures are logged and skipped; the job itself only fails
// when the store cannot be listed.
func (j *RetrainJob) Run(ctx context.Context) error {
	models, err := j.service.ListModels()
	if err != nil {
		return err
	}

	var retrained, failed int
	for _, model := range models {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		horizon := model.Metadata.HorizonDays / 30
		if horizon < 1 {
			horizon = 1
		}

		ok, message := j.service.Train(ctx, model.AssetID, horizon)
		if !ok {
			failed++
			j.log.Warn().Str("asset", model.AssetID).Str("reason", message).Msg("Retrain failed")
			continue
		}
		retrained++
	}

	j.log.Info().Int("retrained", retrained).Int("failed", failed).Msg("Nightly retrain complete")
	return nil
}
