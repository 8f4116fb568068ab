package jobs

import (
	"context"
	"fmt"

	"github.com/ovchar/divspread/internal/refdata"
	"github.com/ovchar/divspread/pkg/logger"
)

// RefreshJob re-pulls the instrument reference data every morning before
// the MOEX main session opens, so the first valuation of the day does not
// pay the refresh cost.
type RefreshJob struct {
	pipeline *refdata.Pipeline
	logger   *logger.Logger
}

// NewRefreshJob creates a new reference data refresh job
func NewRefreshJob(pipeline *refdata.Pipeline, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		pipeline: pipeline,
		logger:   log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "refdata_refresh"
}

// Schedule returns the cron schedule (daily at 08:45, before the 09:00 open)
func (j *RefreshJob) Schedule() string {
	return "0 45 8 * * *"
}

// Run re-pulls both reference datasets unconditionally
func (j *RefreshJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled reference data refresh")

	for _, dataset := range []string{refdata.DatasetStocks, refdata.DatasetFutures} {
		if err := j.pipeline.Refresh(ctx, dataset); err != nil {
			return fmt.Errorf("refresh %s: %w", dataset, err)
		}
		j.logger.WithField("dataset", dataset).Info("Dataset refreshed")
	}

	return nil
}
